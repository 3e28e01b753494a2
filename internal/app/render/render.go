/*
Package render turns domain events into the wire payloads sent to clients.

Each subscriber renders independently: an HTML fragment per delivered event,
personalized by viewer identity so a user's own messages are styled apart.
Rendering is pure template execution into a fresh buffer, safe to call from
any number of sessions at once.
*/
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"chatgrid/internal/app/message"
)

//go:embed templates/*.html
var templateFS embed.FS

// downloadURL turns a stored object key into the link clients can actually
// fetch: the presigned-download endpoint, with the room identity recovered
// from the key's "<kind>-<name>/" prefix. A key that does not carry that
// shape is returned untouched.
func downloadURL(key string) string {
	channel, _, ok := strings.Cut(key, "/")
	if !ok {
		return key
	}

	kind, name, ok := strings.Cut(channel, "-")
	if !ok {
		return key
	}

	q := url.Values{}
	q.Set("kind", kind)
	q.Set("room", name)
	q.Set("k", key)

	return "/api/file/presign-download?" + q.Encode()
}

// Renderer executes the embedded event templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates once at construction.
func NewRenderer() (*Renderer, error) {
	templates, err := template.New("render").Funcs(template.FuncMap{
		"isImage": func(mimeType string) bool {
			return strings.HasPrefix(mimeType, "image/")
		},
		"downloadURL": downloadURL,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse render templates: %w", err)
	}

	return &Renderer{templates: templates}, nil
}

// messageView is the data handed to the message template.
type messageView struct {
	Message message.Message

	// Own is true when the viewer authored the message.
	Own bool
}

// Message renders a chat message fragment for one viewer.
func (r *Renderer) Message(msg message.Message, viewerID string) ([]byte, error) {
	var buf bytes.Buffer
	err := r.templates.ExecuteTemplate(&buf, "message.html", messageView{
		Message: msg,
		Own:     msg.AuthorID == viewerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render message %d: %w", msg.ID, err)
	}
	return buf.Bytes(), nil
}

// countView is the data handed to the online count template.
type countView struct {
	Count int64
}

// OnlineCount renders the presence counter fragment.
func (r *Renderer) OnlineCount(count int64) ([]byte, error) {
	var buf bytes.Buffer
	err := r.templates.ExecuteTemplate(&buf, "online_count.html", countView{Count: count})
	if err != nil {
		return nil, fmt.Errorf("failed to render online count: %w", err)
	}
	return buf.Bytes(), nil
}
