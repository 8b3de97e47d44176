package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/model"
)

// Pipeline runs a query through the engine and delivers the result
type Pipeline struct {
	engine   *Engine
	renderer *Renderer
	exporter Exporter // nil when no document store is available
	logger   *zap.Logger
}

// NewPipeline creates a pipeline; exporter may be nil
func NewPipeline(engine *Engine, renderer *Renderer, exporter Exporter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{engine: engine, renderer: renderer, exporter: exporter, logger: logger}
}

// Engine returns the underlying engine
func (p *Pipeline) Engine() *Engine {
	return p.engine
}

// Run answers one query
func (p *Pipeline) Run(ctx context.Context, query string) (*model.QueryResult, error) {
	return p.engine.ProcessQuery(ctx, query)
}

// Output selects where a result is delivered
type Output struct {
	JSONPath     string
	MarkdownPath string
	ExportFormat string // csv or xlsx; empty = no export
	Verbose      bool
}

// Deliver renders the result and optionally exports its evidence.
// Render failures are errors; an export failure is logged and reported on stdout.
func (p *Pipeline) Deliver(ctx context.Context, result *model.QueryResult, out Output) error {
	if out.JSONPath != "" {
		if err := p.renderer.RenderJSON(result, out.JSONPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if out.Verbose {
			fmt.Fprintf(p.renderer.out, "✓ Wrote JSON: %s\n", out.JSONPath)
		}
	}

	if out.MarkdownPath != "" {
		if !strings.HasSuffix(out.MarkdownPath, ".md") {
			out.MarkdownPath += ".md"
		}
		if err := p.renderer.RenderMarkdown(result, out.MarkdownPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if out.Verbose {
			fmt.Fprintf(p.renderer.out, "✓ Wrote Markdown: %s\n", out.MarkdownPath)
		}
	}

	if out.ExportFormat != "" {
		p.export(ctx, result, out.ExportFormat)
	}

	p.renderer.RenderSummary(result)
	return nil
}

func (p *Pipeline) export(ctx context.Context, result *model.QueryResult, format string) {
	if p.exporter == nil {
		fmt.Fprintf(p.renderer.out, "Warning: export skipped, no document store configured\n")
		return
	}
	desc, err := ExportEvidence(ctx, p.exporter, result, format)
	if err != nil {
		p.logger.Warn("export failed", zap.String("requestId", result.ID), zap.Error(err))
		fmt.Fprintf(p.renderer.out, "Warning: export failed: %v\n", err)
		return
	}
	fmt.Fprintf(p.renderer.out, "✓ Exported %s (%d bytes): %s\n", desc.Format, desc.Size, desc.Path)
}
