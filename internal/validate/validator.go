// Package validate checks that every configured evidence provider is reachable
// with the configured credentials.
package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/transport"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// ErrSkipped marks a check whose provider is not configured
var ErrSkipped = errors.New("not configured")

// Check probes one provider and returns a short human-readable detail
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

// Result is the outcome of one check
type Result struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Skipped  bool          `json:"skipped"`
	Detail   string        `json:"detail,omitempty"`
	Error    string        `json:"error,omitempty"`
	Attempts int           `json:"attempts"`
	Latency  time.Duration `json:"latency"`
}

// Validator runs provider checks concurrently
type Validator struct {
	timeout    time.Duration
	maxWorkers int
}

// NewValidator creates a new validator
func NewValidator(timeout time.Duration, maxWorkers int) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Validator{timeout: timeout, maxWorkers: maxWorkers}
}

// Validate runs all checks; results keep input order
func (v *Validator) Validate(ctx context.Context, checks []Check) []Result {
	results := make([]Result, len(checks))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, v.maxWorkers)

	for i, c := range checks {
		wg.Add(1)
		go func(idx int, c Check) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = Result{Name: c.Name, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.runWithRetry(ctx, c)
		}(i, c)
	}

	wg.Wait()
	return results
}

func (v *Validator) runSingle(ctx context.Context, c Check) (result Result) {
	result = Result{Name: c.Name}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result.OK = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	start := time.Now()
	detail, err := c.Run(ctx)
	result.Latency = time.Since(start)
	result.Detail = detail

	switch {
	case errors.Is(err, ErrSkipped):
		result.Skipped = true
	case err != nil:
		result.Error = err.Error()
	default:
		result.OK = true
	}
	return result
}

// runWithRetry retries transient failures with exponential backoff
func (v *Validator) runWithRetry(ctx context.Context, c Check) Result {
	var result Result
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.runSingle(ctx, c)
		result.Attempts = attempt + 1
		if result.OK || result.Skipped || !isRetryableMessage(result.Error) {
			return result
		}
		if attempt < validateMaxRetries-1 {
			validateSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
		if ctx.Err() != nil {
			return result
		}
	}
	return result
}

// isRetryableMessage checks error text for transient failures
func isRetryableMessage(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "http 5") ||
		strings.Contains(s, "http 429") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

// Healthy reports whether no configured check failed
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.OK && !r.Skipped {
			return false
		}
	}
	return true
}

// Describe turns a provider error into an actionable hint
func Describe(err error) string {
	switch {
	case errors.Is(err, transport.ErrUnauthorized):
		return "credentials rejected: " + err.Error()
	case transport.IsNotFound(err):
		return "endpoint not found, check the base URL: " + err.Error()
	}
	return err.Error()
}

// SourceControl is the part of the source-control adapter a check needs
type SourceControl interface {
	Configured() bool
	Identity(ctx context.Context) (*model.Identity, error)
	DefaultRepository() (model.RepoRef, bool)
}

// IssueTracker is the part of the issue-tracker adapter a check needs
type IssueTracker interface {
	Configured() bool
	Verify(ctx context.Context) (*model.Identity, error)
}

// ModelBackend is the part of an LLM provider a check needs
type ModelBackend interface {
	Name() string
	Check(ctx context.Context) error
}

// DocumentStore is the part of the document service a check needs
type DocumentStore interface {
	Backend() string
	AvailableFiles(ctx context.Context) ([]model.FileInfo, error)
}

// SourceControlCheck verifies the source-control token
func SourceControlCheck(s SourceControl) Check {
	return Check{Name: "github", Run: func(ctx context.Context) (string, error) {
		if s == nil || !s.Configured() {
			return "set GITHUB_TOKEN or source_control.token", ErrSkipped
		}
		id, err := s.Identity(ctx)
		if err != nil {
			return "", errors.New(Describe(err))
		}
		detail := "authenticated as " + id.Name
		if repo, ok := s.DefaultRepository(); ok {
			detail += ", default repository " + repo.String()
		}
		return detail, nil
	}}
}

// IssueTrackerCheck verifies the issue-tracker credentials
func IssueTrackerCheck(t IssueTracker) Check {
	return Check{Name: "jira", Run: func(ctx context.Context) (string, error) {
		if t == nil || !t.Configured() {
			return "set JIRA_BASE_URL, JIRA_EMAIL and JIRA_API_TOKEN", ErrSkipped
		}
		id, err := t.Verify(ctx)
		if err != nil {
			return "", errors.New(Describe(err))
		}
		return "authenticated as " + id.Name, nil
	}}
}

// ModelCheck verifies the optional model backend
func ModelCheck(m ModelBackend) Check {
	return Check{Name: "llm", Run: func(ctx context.Context) (string, error) {
		if m == nil {
			return "keyword classification and template summaries only", ErrSkipped
		}
		if err := m.Check(ctx); err != nil {
			return m.Name(), err
		}
		return m.Name() + " reachable", nil
	}}
}

// DocumentCheck lists the document store
func DocumentCheck(d DocumentStore) Check {
	return Check{Name: "documents", Run: func(ctx context.Context) (string, error) {
		if d == nil {
			return "", ErrSkipped
		}
		files, err := d.AvailableFiles(ctx)
		if err != nil {
			return d.Backend(), err
		}
		return fmt.Sprintf("%d files (%s)", len(files), d.Backend()), nil
	}}
}
