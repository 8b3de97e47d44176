// Package pipeline wires classification, routing, normalization and
// summarization into a single ProcessQuery operation, and renders its result.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/normalize"
)

// Classifier produces an Intent; it never fails
type Classifier interface {
	Classify(ctx context.Context, query string) model.Intent
}

// Router produces raw evidence; failures come back as *model.ErrorEvidence
type Router interface {
	Route(ctx context.Context, intent model.Intent) any
}

// Summarizer produces prose for an envelope; it never fails
type Summarizer interface {
	Summarize(ctx context.Context, env *model.Envelope, intent string) string
}

// Engine processes queries end to end
type Engine struct {
	classifier Classifier
	router     Router
	summarizer Summarizer
	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now for result timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs replaces the request id generator
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an engine
func NewEngine(c Classifier, r Router, s Summarizer, opts ...Option) *Engine {
	e := &Engine{
		classifier: c,
		router:     r,
		summarizer: s,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

// ProcessQuery classifies, routes, normalizes and summarizes one query.
// Only a blank query is an error; every downstream failure is carried as evidence.
func (e *Engine) ProcessQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidQuery)
	}

	id := e.newID()
	start := e.now()
	log := e.logger.With(zap.String("requestId", id))

	intent := e.classifier.Classify(ctx, query)
	log.Info("query classified",
		zap.String("queryType", string(intent.QueryType)),
		zap.String("action", intent.Action),
		zap.String("strategy", intent.Strategy),
		zap.Float64("confidence", intent.Confidence))

	raw := e.router.Route(ctx, intent)
	env := normalize.Normalize(intent.QueryType, raw)
	if env.IsError() {
		log.Warn("evidence unavailable", zap.String("error", env.Error.Message))
	}

	summary := e.summarizer.Summarize(ctx, env, intent.Intent)

	log.Debug("query processed",
		zap.String("kind", string(env.Kind)),
		zap.Int("count", env.Count),
		zap.Duration("elapsed", e.now().Sub(start)))

	return &model.QueryResult{
		ID:        id,
		Query:     query,
		Analysis:  intent,
		Evidence:  env,
		Summary:   summary,
		Timestamp: start.UTC(),
	}, nil
}
