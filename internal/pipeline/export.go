package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ppiankov/evidra/internal/adapters/docs"
	"github.com/ppiankov/evidra/internal/model"
)

// ErrNothingToExport is returned when an envelope carries no records
var ErrNothingToExport = errors.New("evidence has no records to export")

// Exporter writes tabular exports
type Exporter interface {
	Export(ctx context.Context, base string, headers []string, rows []model.Row, format model.ExportFormat) (*model.ExportDescriptor, error)
}

// ExportRecords flattens an envelope into records. Multi-source envelopes
// contribute every sub-envelope's records tagged with a "source" column.
func ExportRecords(env *model.Envelope) []map[string]any {
	if env == nil {
		return nil
	}
	if env.Kind != model.KindMultiSource {
		return env.Rows()
	}

	names := make([]string, 0, len(env.Sources))
	for name := range env.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []map[string]any
	for _, name := range names {
		for _, rec := range ExportRecords(env.Sources[name]) {
			tagged := make(map[string]any, len(rec)+1)
			tagged["source"] = name
			for k, v := range rec {
				tagged[k] = v
			}
			out = append(out, tagged)
		}
	}
	return out
}

// ExportEvidence writes a result's evidence through exporter
func ExportEvidence(ctx context.Context, exporter Exporter, result *model.QueryResult, format string) (*model.ExportDescriptor, error) {
	f, err := docs.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	records := ExportRecords(result.Evidence)
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}
	headers, rows := docs.Tabulate(records)

	base := "evidence"
	if result.Evidence != nil && result.Evidence.RecordType != "" {
		base = result.Evidence.RecordType
	}
	desc, err := exporter.Export(ctx, base, headers, rows, f)
	if err != nil {
		return nil, fmt.Errorf("export evidence: %w", err)
	}
	return desc, nil
}
