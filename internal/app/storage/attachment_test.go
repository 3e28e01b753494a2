package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatgrid/internal/pkg/errs"
)

func TestValidateFileSize(t *testing.T) {
	assert.Nil(t, ValidateFileSize(1))
	assert.Nil(t, ValidateFileSize(MaxAttachmentSize))

	assert.True(t, errs.Is(ValidateFileSize(0), errs.ErrInvalidParams))
	assert.True(t, errs.Is(ValidateFileSize(-1), errs.ErrInvalidParams))
	assert.True(t, errs.Is(ValidateFileSize(MaxAttachmentSize+1), errs.ErrFileSizeTooLarge))
}

func TestValidateFileType(t *testing.T) {
	assert.Nil(t, ValidateFileType("cat.png", "image/png"))
	assert.Nil(t, ValidateFileType("CLIP.MP4", "video/mp4"))
	assert.Nil(t, ValidateFileType("notes.pdf", "Application/PDF"))

	assert.True(t, errs.Is(ValidateFileType("shell.sh", "application/x-sh"), errs.ErrFileTypeInvalid))
	assert.True(t, errs.Is(ValidateFileType("noext", "image/png"), errs.ErrFileTypeInvalid))
	assert.True(t, errs.Is(ValidateFileType("cat.png", "image/jpeg"), errs.ErrFileTypeInvalid),
		"extension and MIME type must agree")
}

func TestBuildKey(t *testing.T) {
	key := BuildKey("group-alice-group-team", "Cat Photo.PNG")

	assert.True(t, strings.HasPrefix(key, "group-alice-group-team/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, BuildKey("group-alice-group-team", "Cat Photo.PNG"),
		"each upload gets a fresh key")
}

func TestValidateKey(t *testing.T) {
	assert.Nil(t, ValidateKey("group-team", "group-team/abc.png"))

	assert.NotNil(t, ValidateKey("group-team", ""))
	assert.NotNil(t, ValidateKey("group-team", "group-other/abc.png"))
	assert.NotNil(t, ValidateKey("group-team", "group-team/../secret.png"))
}
