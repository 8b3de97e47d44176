package docs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/ppiankov/evidra/internal/model"
)

// exportPrefix separates exports from uploads inside the container
const exportPrefix = "exports/"

// BlobStore keeps documents in an Azure Blob Storage container
type BlobStore struct {
	client    *azblob.Client
	container string
}

// NewBlobStore connects with a connection string, or with the default Azure
// credential chain against cfg.AccountURL
func NewBlobStore(ctx context.Context, cfg model.DocumentsConfig) (*BlobStore, error) {
	var (
		client *azblob.Client
		err    error
	)
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountURL != "":
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("azure credential: %w", credErr)
		}
		client, err = azblob.NewClient(cfg.AccountURL, cred, nil)
	default:
		return nil, ErrMissingCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	container := cfg.Container
	if container == "" {
		container = "documents"
	}
	return &BlobStore{client: client, container: container}, nil
}

func (s *BlobStore) Name() string { return "azblob" }

func (s *BlobStore) List(ctx context.Context) ([]model.FileInfo, error) {
	files := []model.FileInfo{}
	pager := s.client.NewListBlobsFlatPager(s.container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if bloberror.HasCode(err, bloberror.ContainerNotFound) {
				return files, nil
			}
			return nil, fmt.Errorf("list container %s: %w", s.container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil || strings.HasPrefix(*item.Name, exportPrefix) || strings.Contains(*item.Name, "/") {
				continue
			}
			fi := model.FileInfo{Name: *item.Name, Type: FileType(*item.Name)}
			if p := item.Properties; p != nil {
				if p.ContentLength != nil {
					fi.Size = *p.ContentLength
				}
				if p.LastModified != nil {
					fi.Modified = *p.LastModified
				}
			}
			files = append(files, fi)
		}
	}
	sortNewestFirst(files)
	return files, nil
}

func (s *BlobStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("download blob %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

func (s *BlobStore) WriteExport(ctx context.Context, name string, data []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	key := exportPrefix + name
	if _, err := s.client.UploadBuffer(ctx, s.container, key, data, nil); err != nil {
		return "", fmt.Errorf("upload blob %s: %w", key, err)
	}
	return strings.TrimRight(s.client.URL(), "/") + "/" + s.container + "/" + key, nil
}
