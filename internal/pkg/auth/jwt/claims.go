package jwt

import "github.com/golang-jwt/jwt"

// Payload is the identity claim set chatgrid expects from the surrounding
// auth layer. The server never issues end-user credentials itself; it only
// verifies tokens minted by the auth service sharing the same secret.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the authenticated user's unique identifier.
	ID string `json:"id"`

	// Username is the display name used when rendering messages.
	Username string `json:"username"`
}
