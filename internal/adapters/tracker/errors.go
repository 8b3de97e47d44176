package tracker

import "errors"

// ErrNotConfigured is returned when the base URL, email or API token is missing
var ErrNotConfigured = errors.New("issue tracker is not configured: set issue_tracker.base_url, email and token (or JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN)")
