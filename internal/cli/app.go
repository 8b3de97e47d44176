package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/adapters/docs"
	"github.com/ppiankov/evidra/internal/adapters/scm"
	"github.com/ppiankov/evidra/internal/adapters/tracker"
	"github.com/ppiankov/evidra/internal/cache"
	"github.com/ppiankov/evidra/internal/classify"
	"github.com/ppiankov/evidra/internal/llm"
	"github.com/ppiankov/evidra/internal/model"
	"github.com/ppiankov/evidra/internal/pipeline"
	"github.com/ppiankov/evidra/internal/router"
	"github.com/ppiankov/evidra/internal/transport"
)

// app holds the components built from one configuration
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	scm      *scm.Client
	tracker  *tracker.Client
	docs     *docs.Service // nil when the store could not be opened
	provider llm.Provider  // nil when no model backend is configured
	engine   *pipeline.Engine
}

func newApp(ctx context.Context, cfg *model.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	ch := cache.New(cfg.Cache)
	limiter := transport.NewLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.BurstSize)
	topts := transport.Options(cfg.HTTP, limiter, ch, cfg.Cache.TTL, logger.Named("transport"))

	a.scm = scm.New(cfg.SourceControl,
		scm.WithLogger(logger),
		scm.WithEnrichmentLimit(cfg.Concurrency.EnrichmentWorkers),
		scm.WithTransport(topts...))
	a.tracker = tracker.New(cfg.IssueTracker,
		tracker.WithLogger(logger),
		tracker.WithTransport(topts...))

	store, err := docs.NewStore(ctx, cfg.Documents)
	if err != nil {
		logger.Warn("document store unavailable", zap.String("backend", cfg.Documents.Backend), zap.Error(err))
	} else {
		a.docs = docs.NewService(store, cfg.Documents, docs.WithLogger(logger))
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	a.provider = provider

	ropts := []router.Option{router.WithLogger(logger)}
	if a.scm.Configured() {
		ropts = append(ropts, router.WithSourceControl(a.scm))
	}
	if a.tracker.Configured() {
		ropts = append(ropts, router.WithIssueTracker(a.tracker))
	}
	if a.docs != nil {
		ropts = append(ropts, router.WithDocuments(a.docs))
	}

	a.engine = pipeline.NewEngine(
		classify.New(provider, classify.WithLogger(logger.Named("classify"))),
		router.New(ropts...),
		llm.NewSummarizer(provider, logger.Named("summary")),
		pipeline.WithLogger(logger),
	)
	return a, nil
}

// exporter returns the document service as a pipeline exporter, or nil
func (a *app) exporter() pipeline.Exporter {
	if a.docs == nil {
		return nil
	}
	return a.docs
}

// bootstrap loads config, logger and components for a command
func bootstrap(ctx context.Context) (*app, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "  github:    %v\n", a.scm.Configured())
		fmt.Fprintf(os.Stderr, "  jira:      %v\n", a.tracker.Configured())
		fmt.Fprintf(os.Stderr, "  documents: %v\n", a.docs != nil)
		fmt.Fprintf(os.Stderr, "  llm:       %s\n", providerName(a.provider))
	}
	return a, nil
}

func providerName(p llm.Provider) string {
	if p == nil {
		return "disabled"
	}
	return p.Name()
}
