package pipeline

import "errors"

// ErrInvalidQuery rejects absent, non-string or blank queries before any provider call
var ErrInvalidQuery = errors.New("invalid query")
