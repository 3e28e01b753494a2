package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatgrid/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed attachment size in megabytes.
	MaxAttachmentSizeMB = 10

	// MaxAttachmentSize is the maximum allowed attachment size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is how long a presigned upload or download URL
	// stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes is the set of attachment MIME types accepted for upload.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"video/mp4":       {},
	"application/pdf": {},
}

// ExtToMIME maps accepted file extensions to their MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".pdf":  "application/pdf",
}

// ValidateFileSize checks that the declared size is positive and within the
// limit.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}
	return nil
}

// ValidateFileType checks that the file name's extension is accepted and
// agrees with the declared MIME type.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}

// BuildKey derives a fresh object key for an upload into the given room
// channel: "<channel>/<uuid><ext>".
func BuildKey(channel string, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", channel, uuid.New().String(), ext)
}

// ValidateKey checks that a client-supplied object key belongs to the given
// room channel and carries no path tricks.
func ValidateKey(channel string, key string) *errs.CustomError {
	if key == "" || strings.Contains(key, "..") {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}
	if !strings.HasPrefix(key, channel+"/") {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}
	return nil
}
