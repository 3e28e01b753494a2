package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgrid/internal/configs"
	"chatgrid/internal/pkg/auth/jwt"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return Router(&AppDeps{
		Config: &configs.AppConfig{
			Environment: "development",
			Port:        8080,
			JWTSecret:   "test-secret",
		},
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAPIRequiresIdentity(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/global", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIRejectsInvalidToken(t *testing.T) {
	router := newTestRouter(t)

	// A token signed with the wrong secret is treated as anonymous, and
	// anonymous callers cannot list rooms.
	token, err := jwt.GenerateToken(&jwt.Payload{ID: "u1", Username: "alice"}, "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/global", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRenderedAttachmentLinksAreRoutable(t *testing.T) {
	router := newTestRouter(t)

	// The shape of the link the message renderer emits for attachments.
	// Without an identity it must be rejected by the handler, not fall
	// through to a 404.
	target := "/api/file/presign-download?k=group-alice-group-team%2Fabc.png&kind=group&room=alice-group-team"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketRejectsInvalidKind(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/direct/lobby", nil))

	assert.NotEqual(t, http.StatusSwitchingProtocols, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid chat type")
}

func TestWebSocketRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/global/lobby", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
