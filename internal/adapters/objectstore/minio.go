package objectstore

// Package objectstore adapts MinIO (or any S3-compatible endpoint) to the
// file browser port.

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/target/kb-ui-api/config"
	"github.com/target/kb-ui-api/internal/domain/model"
	"github.com/target/kb-ui-api/internal/ports"
)

// MinioStore implements ports.ObjectStore over a single bucket.
type MinioStore struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
}

var _ ports.ObjectStore = (*MinioStore)(nil)

// NewMinioStore connects to the configured endpoint and ensures the bucket
// exists.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if makeErr := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); makeErr != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, makeErr)
		}
	}

	return &MinioStore{
		client:        client,
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
	}, nil
}

// List returns objects under the given prefix, recursively.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]model.FileObject, error) {
	objects := make([]model.FileObject, 0)
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects: %w", info.Err)
		}
		objects = append(objects, model.FileObject{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
	}
	return objects, nil
}

// Put streams an object into the bucket.
func (s *MinioStore) Put(ctx context.Context, in ports.PutObjectInput) (model.FileObject, error) {
	if err := model.ValidateObjectKey(in.Key); err != nil {
		return model.FileObject{}, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, in.Key, in.Body, in.Size, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return model.FileObject{}, fmt.Errorf("put object %q: %w", in.Key, err)
	}
	return model.FileObject{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  in.ContentType,
		LastModified: time.Now(),
	}, nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := model.ValidateObjectKey(key); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// PresignGet returns a time-limited download URL so file bytes never flow
// through the API process. A non-positive expiry takes the configured
// default.
func (s *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := model.ValidateObjectKey(key); err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = s.presignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return u.String(), nil
}
