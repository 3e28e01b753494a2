package jwt

import (
	"context"
	"net/http"
	"strings"

	"chatgrid/internal/pkg/logx"
)

// contextKey prevents collisions with other packages' context values.
type contextKey string

// ContextAuthPayloadKey is where the parsed identity Payload lives in a
// request context.
const ContextAuthPayloadKey contextKey = "auth_payload"

// IdentityExtractorMiddleware validates a bearer token if one is present and
// injects the Payload into the context. Missing or invalid tokens do not
// fail the request; the user is simply anonymous, and handlers that need an
// identity reject a nil payload themselves.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := parts[1]

			payload, err := ParseToken(tokenString, secretKey)

			if err != nil {
				logx.Warn("Invalid or expired JWT provided, treating as anonymous", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext returns the authenticated Payload, or nil for an
// anonymous request.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
