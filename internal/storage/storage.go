package storage

import (
	"context"
	"errors"
	"io"
)

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// PutObject stores body under objectKey.
	PutObject(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error

	// ObjectURL returns the stable public URL of objectKey.
	ObjectURL(objectKey string) string

	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}

var ErrObjectNotFound = errors.New("object not found in storage")
