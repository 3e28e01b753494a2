package message

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatgrid/internal/pkg/errs"
)

func TestCreateRejectsEmptyMessage(t *testing.T) {
	store := NewStore(nil)

	_, err := store.Create(context.Background(), CreateParams{})

	assert.True(t, errs.Is(err, errs.ErrMessageEmpty))
}

func TestCreateRejectsOversizedBody(t *testing.T) {
	store := NewStore(nil)

	_, err := store.Create(context.Background(), CreateParams{
		Body: strings.Repeat("a", MaxBodyBytes+1),
	})

	assert.True(t, errs.Is(err, errs.ErrMessageContentTooLong))
}
