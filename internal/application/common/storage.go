package common

import (
	"context"
	"io"
	"time"
)

// ObjectStorage stores uploaded files: payment proofs and product images
type ObjectStorage interface {
	// Upload writes the object and returns its public or presigned URL
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)

	// GenerateDownloadURL returns a time-limited URL for a private object
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	DeleteObject(ctx context.Context, key string) error
}

// UploadedFile is a file received from a multipart form
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
