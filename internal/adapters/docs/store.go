package docs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/evidra/internal/model"
)

// Store holds uploaded documents and receives exports
type Store interface {
	// Name identifies the backend
	Name() string
	// List returns every stored document, newest first
	List(ctx context.Context) ([]model.FileInfo, error)
	// Read returns the full content of one document
	Read(ctx context.Context, name string) ([]byte, error)
	// WriteExport stores an export and returns where it was written
	WriteExport(ctx context.Context, name string, data []byte) (string, error)
}

// NewStore selects the backend named by cfg.Backend ("" and "fs" mean the filesystem)
func NewStore(ctx context.Context, cfg model.DocumentsConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "fs", "filesystem":
		return NewFSStore(cfg.Dir, cfg.ExportDir), nil
	case "azblob", "blob", "azure":
		return NewBlobStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// FSStore keeps documents in a local directory
type FSStore struct {
	dir       string
	exportDir string
}

// NewFSStore creates a filesystem store; exports go to exportDir (dir when empty)
func NewFSStore(dir, exportDir string) *FSStore {
	if exportDir == "" {
		exportDir = dir
	}
	return &FSStore{dir: dir, exportDir: exportDir}
}

func (s *FSStore) Name() string { return "fs" }

func (s *FSStore) List(ctx context.Context) ([]model.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.FileInfo{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	files := make([]model.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, model.FileInfo{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
			Type:     FileType(e.Name()),
		})
	}
	sortNewestFirst(files)
	return files, nil
}

func (s *FSStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (s *FSStore) WriteExport(ctx context.Context, name string, data []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.exportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// ValidateName rejects empty names and anything that could escape the store
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// FileType returns the lowercase extension without its dot (csv, xlsx, ...)
func FileType(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Supported reports whether a document of this type can be parsed
func Supported(fileType string) bool {
	return fileType == "csv" || fileType == "xlsx"
}

func sortNewestFirst(files []model.FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Modified.Equal(files[j].Modified) {
			return files[i].Modified.After(files[j].Modified)
		}
		return files[i].Name < files[j].Name
	})
}
