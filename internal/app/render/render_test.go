package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgrid/internal/app/message"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func testMessage() message.Message {
	return message.Message{
		ID:         7,
		AuthorID:   "u1",
		AuthorName: "alice",
		Body:       "hello there",
		CreatedAt:  time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC),
	}
}

func TestMessageRendering(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Message(testMessage(), "u2")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "alice")
	assert.Contains(t, html, "hello there")
	assert.Contains(t, html, `id="message-7"`)
	assert.NotContains(t, html, "message--own")
}

func TestMessageRenderingMarksOwnMessages(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Message(testMessage(), "u1")
	require.NoError(t, err)

	assert.Contains(t, string(out), "message--own")
}

func TestMessageRenderingEscapesBody(t *testing.T) {
	r := newTestRenderer(t)

	msg := testMessage()
	msg.Body = `<script>alert("x")</script>`

	out, err := r.Message(msg, "u2")
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<script>")
}

func TestMessageRenderingImageAttachment(t *testing.T) {
	r := newTestRenderer(t)

	msg := testMessage()
	msg.Body = ""
	msg.Attachment = &message.Attachment{
		URL:      "group-team/abc.png",
		MimeType: "image/png",
		FileName: "cat.png",
	}

	out, err := r.Message(msg, "u2")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<img")
	assert.Contains(t, html, "cat.png")
}

func TestMessageRenderingLinksDownloadEndpoint(t *testing.T) {
	r := newTestRenderer(t)

	msg := testMessage()
	msg.Attachment = &message.Attachment{
		URL:      "group-alice-group-team/abc.png",
		MimeType: "image/png",
		FileName: "cat.png",
	}

	out, err := r.Message(msg, "u2")
	require.NoError(t, err)

	// The raw object key is not a servable path; the fragment must point at
	// the download endpoint instead.
	html := string(out)
	assert.NotContains(t, html, `src="group-alice-group-team/abc.png"`)
	assert.Contains(t, html, "/api/file/presign-download?")
	assert.Contains(t, html, "k=group-alice-group-team%2Fabc.png")
	assert.Contains(t, html, "kind=group")
	assert.Contains(t, html, "room=alice-group-team")
}

func TestDownloadURL(t *testing.T) {
	assert.Equal(t,
		"/api/file/presign-download?k=group-alice-group-team%2Fabc.png&kind=group&room=alice-group-team",
		downloadURL("group-alice-group-team/abc.png"))

	assert.Equal(t,
		"/api/file/presign-download?k=private-alice_bob%2Fdoc.pdf&kind=private&room=alice_bob",
		downloadURL("private-alice_bob/doc.pdf"))

	// Keys without the room prefix shape pass through unchanged.
	assert.Equal(t, "plainkey.png", downloadURL("plainkey.png"))
}

func TestMessageRenderingFileAttachment(t *testing.T) {
	r := newTestRenderer(t)

	msg := testMessage()
	msg.Attachment = &message.Attachment{
		URL:      "group-team/abc.pdf",
		MimeType: "application/pdf",
		FileName: "notes.pdf",
	}

	out, err := r.Message(msg, "u2")
	require.NoError(t, err)

	html := string(out)
	assert.NotContains(t, html, "<img")
	assert.Contains(t, html, "notes.pdf")
}

func TestOnlineCount(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.OnlineCount(2)
	require.NoError(t, err)

	assert.Contains(t, string(out), "2 online")
}
