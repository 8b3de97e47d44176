// Package router dispatches a classified Intent to the provider operation
// that answers it. Every failure past this point becomes ErrorEvidence.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/worker"
)

// Provider names used as multi-source keys
const (
	SourceGitHub    = "github"
	SourceJira      = "jira"
	SourceDocuments = "documents"
)

// Router holds the provider adapters. Any of them may be nil.
type Router struct {
	scm     SourceControl
	tracker IssueTracker
	docs    Documents
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Router
type Option func(*Router)

// WithSourceControl sets the source-control adapter
func WithSourceControl(s SourceControl) Option {
	return func(r *Router) { r.scm = s }
}

// WithIssueTracker sets the issue-tracker adapter
func WithIssueTracker(t IssueTracker) Option {
	return func(r *Router) { r.tracker = t }
}

// WithDocuments sets the document adapter
func WithDocuments(d Documents) Option {
	return func(r *Router) { r.docs = d }
}

// WithClock replaces time.Now for age-based filters
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a router
func New(opts ...Option) *Router {
	r := &Router{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("router")
	return r
}

// Route returns raw evidence for intent. It never returns an error: provider
// failures are returned as *model.ErrorEvidence.
func (r *Router) Route(ctx context.Context, intent model.Intent) any {
	var (
		raw any
		err error
	)
	switch intent.QueryType {
	case model.QuerySourceControl:
		raw, err = r.sourceControl(ctx, intent)
	case model.QueryIssueTracker:
		raw, err = r.issueTracker(ctx, intent)
	case model.QueryDocument:
		raw, err = r.document(ctx, intent)
	default:
		return r.general(ctx, intent)
	}
	if err != nil {
		return r.failed(intent, string(intent.QueryType), err)
	}
	return raw
}

// general fans out to every provider; one provider's failure never affects the others
func (r *Router) general(ctx context.Context, intent model.Intent) model.MultiSource {
	names := []string{SourceGitHub, SourceJira, SourceDocuments}
	tasks := []worker.Task[any]{
		func(ctx context.Context) (any, error) { return r.sourceControl(ctx, intent) },
		func(ctx context.Context) (any, error) { return r.issueTracker(ctx, intent) },
		func(ctx context.Context) (any, error) { return r.document(ctx, intent) },
	}

	r.logger.Debug("branch", zap.String("queryType", string(model.QueryGeneral)), zap.Strings("sources", names))

	out := make(model.MultiSource, len(names))
	for i, res := range worker.Settle(ctx, 0, tasks) {
		if res.Err != nil {
			out[names[i]] = r.failed(intent, names[i], res.Err)
			continue
		}
		out[names[i]] = res.Value
	}
	return out
}

func (r *Router) failed(intent model.Intent, source string, err error) *model.ErrorEvidence {
	var ee *model.ErrorEvidence
	if errors.As(err, &ee) {
		return ee
	}
	r.logger.Warn("provider failed",
		zap.String("source", source),
		zap.Any("parameters", intent.Parameters.Fields()),
		zap.Error(err))
	return model.NewErrorEvidence(err, intent.Parameters)
}

func missing(name string) error {
	return fmt.Errorf("%s: %w", name, ErrProviderMissing)
}
