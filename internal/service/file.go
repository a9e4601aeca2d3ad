package service

import (
	"context"
	"fmt"
	"time"

	"github.com/target/kb-ui-api/internal/domain/model"
	"github.com/target/kb-ui-api/internal/ports"
)

// FileServiceOptions groups dependencies for FileService.
type FileServiceOptions struct {
	Store         ports.ObjectStore
	PresignExpiry time.Duration
}

// FileService exposes the attachment browser over the object store.
type FileService struct {
	store         ports.ObjectStore
	presignExpiry time.Duration
}

// NewFileService constructs a new FileService.
func NewFileService(opts FileServiceOptions) *FileService {
	expiry := opts.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &FileService{store: opts.Store, presignExpiry: expiry}
}

// List returns objects under the given prefix.
func (s *FileService) List(ctx context.Context, prefix string) ([]model.FileObject, error) {
	return s.store.List(ctx, prefix)
}

// Upload validates the key and streams the object into storage.
func (s *FileService) Upload(ctx context.Context, in ports.PutObjectInput) (model.FileObject, error) {
	if err := model.ValidateObjectKey(in.Key); err != nil {
		return model.FileObject{}, err
	}
	if in.Body == nil {
		return model.FileObject{}, fmt.Errorf("upload body is required")
	}
	return s.store.Put(ctx, in)
}

// Delete removes an object.
func (s *FileService) Delete(ctx context.Context, key string) error {
	if err := model.ValidateObjectKey(key); err != nil {
		return err
	}
	return s.store.Delete(ctx, key)
}

// DownloadURL returns a time-limited URL for fetching the object directly
// from storage.
func (s *FileService) DownloadURL(ctx context.Context, key string) (string, error) {
	if err := model.ValidateObjectKey(key); err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, key, s.presignExpiry)
}
