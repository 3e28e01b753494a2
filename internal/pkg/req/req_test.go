package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgrid/internal/pkg/errs"
)

type testInput struct {
	Name string `json:"name"`
}

func bind(t *testing.T, contentType, body string) *errs.CustomError {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", contentType)

	var input testInput
	return BindJSON(httptest.NewRecorder(), r, &input)
}

func TestBindJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alice"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	var input testInput
	customErr := BindJSON(httptest.NewRecorder(), r, &input)

	require.Nil(t, customErr)
	assert.Equal(t, "alice", input.Name)
}

func TestBindJSONRejectsWrongContentType(t *testing.T) {
	customErr := bind(t, "text/plain", `{"name":"alice"}`)
	assert.True(t, errs.Is(customErr, errs.ErrUnsupportedMediaType))
}

func TestBindJSONRejectsUnknownFields(t *testing.T) {
	customErr := bind(t, "application/json", `{"name":"alice","extra":1}`)
	assert.True(t, errs.Is(customErr, errs.ErrInvalidJSONFormat))
}

func TestBindJSONRejectsTrailingContent(t *testing.T) {
	customErr := bind(t, "application/json", `{"name":"alice"}{"name":"bob"}`)
	assert.True(t, errs.Is(customErr, errs.ErrExtraContentInBody))
}

func TestBindJSONRejectsOversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", int(MaxJSONBodySize)) + `"}`
	customErr := bind(t, "application/json", body)
	assert.True(t, errs.Is(customErr, errs.ErrRequestEntityTooLarge))
}
