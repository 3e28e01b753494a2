package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the settings required to reach the object store.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType   string
	ContentLength int64
}

// Service is the file storage gateway used by the attachment endpoints.
type Service interface {
	// Upload streams an object into the bucket under the given key.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// PresignUpload generates a pre-signed URL for a direct client upload.
	PresignUpload(ctx context.Context, key string, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a stored object.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Head returns the stored object's metadata, or ErrAttachmentKeyInvalid
	// when no such object exists.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// Delete removes the object under the given key.
	Delete(ctx context.Context, key string) error
}

// NewService builds the storage gateway. Only S3-compatible backends are
// supported.
func NewService(cfg ServiceConfig) (Service, error) {
	return newS3Client(cfg)
}
