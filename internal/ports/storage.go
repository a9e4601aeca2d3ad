package ports

import (
	"context"
	"io"
	"time"

	"github.com/target/kb-ui-api/internal/domain/model"
)

// PutObjectInput groups parameters for ObjectStore.Put.
type PutObjectInput struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectStore is the file-browser port over an S3-compatible backend.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]model.FileObject, error)
	Put(ctx context.Context, in PutObjectInput) (model.FileObject, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
