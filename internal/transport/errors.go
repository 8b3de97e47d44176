package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches any *APIError with status 404
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized matches any *APIError with status 401 or 403
	ErrUnauthorized = errors.New("unauthorized")
)

// maxErrorBody caps how much of a failed response is kept on the error
const maxErrorBody = 512

// APIError represents a non-2xx provider response
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is lets errors.Is match status-class sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is (or wraps) a 404
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusCode extracts the HTTP status from err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
