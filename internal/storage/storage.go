package storage

import (
	"context"
	"io"
	"time"
)

// DefaultPresignedURLExpiry applies when a caller passes a non-positive expiry.
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage is the object store used for workout exports.
type FileStorage interface {
	// PutObject uploads body under objectKey.
	PutObject(ctx context.Context, objectKey string, contentType string, body io.Reader) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
