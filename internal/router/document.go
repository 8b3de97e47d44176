package router

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/adapters/docs"
	"github.com/ppiankov/evidra/internal/model"
)

var (
	noFilesGuidance = &model.Guidance{
		Message:    "No documents have been uploaded yet.",
		Suggestion: "Upload a CSV or XLSX file, then ask again.",
	}
	noParsableGuidance = &model.Guidance{
		Message:    "No CSV or XLSX documents are available to analyze.",
		Suggestion: "Upload a CSV or XLSX file, then ask again.",
	}
)

// document analyzes the named file, or the most recently modified one, and
// exports it when an export format was requested
func (r *Router) document(ctx context.Context, intent model.Intent) (any, error) {
	if r.docs == nil {
		return nil, missing(SourceDocuments)
	}
	p := intent.Parameters

	files, err := r.docs.AvailableFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		r.logger.Debug("no documents available")
		return noFilesGuidance, nil
	}

	file, err := pickFile(files, p.FileName)
	if errors.Is(err, docs.ErrNoFiles) {
		return noParsableGuidance, nil
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("branch",
		zap.String("queryType", string(model.QueryDocument)),
		zap.String("file", file.Name),
		zap.String("exportFormat", p.ExportFormat))

	table, err := r.docs.Load(ctx, file.Name)
	if err != nil {
		return nil, err
	}
	analysis := r.docs.Analyze(file, table)

	if p.HasExportFormat() {
		desc, err := r.export(ctx, file.Name, table, p.ExportFormat)
		if err != nil {
			r.logger.Warn("export failed", zap.String("file", file.Name), zap.Error(err))
			analysis.Insights = append(analysis.Insights, "Export failed: "+err.Error())
		} else {
			analysis.Export = desc
		}
	}
	return analysis, nil
}

func (r *Router) export(ctx context.Context, name string, t *model.Table, format string) (*model.ExportDescriptor, error) {
	f, err := docs.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return r.docs.Export(ctx, name, t.Headers, t.Rows, f)
}

// pickFile returns the file named in the query when it exists, else the newest parsable file
func pickFile(files []model.FileInfo, name string) (model.FileInfo, error) {
	if name != "" {
		for _, f := range files {
			if strings.EqualFold(f.Name, name) && docs.Supported(f.Type) {
				return f, nil
			}
		}
	}
	return docs.LatestSupported(files)
}
