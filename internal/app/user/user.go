/*
Package user holds the identity value type shared by the realtime layer and
the HTTP handlers. Account management lives in an external service; chatgrid
only ever sees the authenticated identity it is handed.
*/
package user

// User is the authenticated identity of a chat participant.
type User struct {
	// ID is the unique identifier assigned by the auth service.
	ID string `json:"id"`

	// Username is the display name shown next to messages.
	Username string `json:"username"`
}
