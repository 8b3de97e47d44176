package scm

import "errors"

// ErrNotConfigured is returned by every call when no token is configured
var ErrNotConfigured = errors.New("source control is not configured: set source_control.token or GITHUB_TOKEN")
