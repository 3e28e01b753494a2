/*
Package message is the durable message store gateway.

Messages are immutable once written. A write is immediately visible to any
subsequent Get from any process, which the realtime layer relies on: only a
message id crosses the broadcast bus, and every subscriber re-reads the full
record before rendering it.
*/
package message

import "time"

// MaxBodyBytes caps message text length.
const MaxBodyBytes = 5000

// Attachment describes a file carried by a message. The file itself lives in
// object storage; only its descriptor is persisted.
type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"`
}

// Message is a persisted chat message.
type Message struct {
	// ID is assigned by the store, monotonically increasing.
	ID int64

	RoomID     int64
	AuthorID   string
	AuthorName string

	// Body may be empty only when an attachment is present.
	Body string

	// Attachment is nil for plain text messages.
	Attachment *Attachment

	CreatedAt time.Time
}
