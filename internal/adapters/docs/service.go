// Package docs is the document evidence adapter: it lists uploaded tabular
// files, parses and profiles them, and writes csv or xlsx exports.
package docs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/model"
)

// Service wraps a Store with parsing, analysis and export
type Service struct {
	store       Store
	sampleSize  int
	previewRows int
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for export names
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a document service over store
func NewService(store Store, cfg model.DocumentsConfig, opts ...Option) *Service {
	s := &Service{
		store:       store,
		sampleSize:  cfg.SampleSize,
		previewRows: cfg.PreviewRows,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	if s.sampleSize <= 0 {
		s.sampleSize = DefaultSampleSize
	}
	if s.previewRows <= 0 {
		s.previewRows = DefaultPreviewRows
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("docs")
	return s
}

// Name identifies the provider in multi-source evidence
func (s *Service) Name() string {
	return "documents"
}

// Backend names the underlying store
func (s *Service) Backend() string {
	return s.store.Name()
}

// AvailableFiles lists every stored document, newest first
func (s *Service) AvailableFiles(ctx context.Context) ([]model.FileInfo, error) {
	return s.store.List(ctx)
}

// Latest returns the most recently modified parsable document
func (s *Service) Latest(ctx context.Context) (model.FileInfo, error) {
	files, err := s.store.List(ctx)
	if err != nil {
		return model.FileInfo{}, err
	}
	return LatestSupported(files)
}

// LatestSupported picks the newest csv or xlsx entry
func LatestSupported(files []model.FileInfo) (model.FileInfo, error) {
	var (
		latest model.FileInfo
		found  bool
	)
	for _, f := range files {
		if !Supported(f.Type) {
			continue
		}
		if !found || f.Modified.After(latest.Modified) {
			latest, found = f, true
		}
	}
	if !found {
		return model.FileInfo{}, ErrNoFiles
	}
	return latest, nil
}

// Load reads and parses one document
func (s *Service) Load(ctx context.Context, name string) (*model.Table, error) {
	if !Supported(FileType(name)) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	data, err := s.store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	t, err := Parse(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Debug("document parsed",
		zap.String("name", name),
		zap.Int("rows", t.RowCount),
		zap.Int("columns", len(t.Headers)))
	return t, nil
}

// Analyze profiles a parsed table with the configured sample and preview sizes
func (s *Service) Analyze(file model.FileInfo, t *model.Table) *model.DocumentAnalysis {
	return Analyze(file, t, s.sampleSize, s.previewRows)
}

// Export encodes rows and writes them through the store
func (s *Service) Export(ctx context.Context, base string, headers []string, rows []model.Row, format model.ExportFormat) (*model.ExportDescriptor, error) {
	data, err := Encode(format, headers, rows)
	if err != nil {
		return nil, err
	}
	name := ExportName(base, format, s.now())
	path, err := s.store.WriteExport(ctx, name, data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export written", zap.String("path", path), zap.Int("rows", len(rows)))
	return &model.ExportDescriptor{
		Name:   name,
		Path:   path,
		Size:   int64(len(data)),
		Format: format,
	}, nil
}
