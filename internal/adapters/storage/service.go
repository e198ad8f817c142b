// Package storage provides S3-compatible object storage for quotation
// archive documents.
package storage

import (
	"context"
	"io"
)

// ObjectStore defines the object storage operations used by the archive.
type ObjectStore interface {
	// PutObject writes the object at the exact key, replacing any previous one.
	PutObject(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, size int64) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketQuotationArchive() string
	IsMinIOEnabled() bool
}
