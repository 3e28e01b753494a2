package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestConn opens a real websocket connection against a throwaway
// server so teardown paths that touch the socket can run.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestSessionDeliverBuffersUpToCapacity(t *testing.T) {
	f := newServiceFixture(Config{})
	sess := NewSession(nil, alice, testRoom, f.svc)

	for i := 0; i < eventBufferSize; i++ {
		assert.True(t, sess.Deliver(NewMessage{MessageID: int64(i)}))
	}

	assert.False(t, sess.Deliver(NewMessage{MessageID: 999}),
		"a full event buffer marks the session as a slow consumer")
}

func TestSessionDeliverAfterTeardownReportsSuccess(t *testing.T) {
	f := newServiceFixture(Config{})
	sess := NewSession(nil, alice, testRoom, f.svc)

	close(sess.done)

	// A closing session accepts and discards events so the bus does not
	// start a second teardown for it.
	assert.True(t, sess.Deliver(NewMessage{MessageID: 1}))
	assert.Empty(t, sess.events)
}

func TestSessionCloseRunsTeardownOnce(t *testing.T) {
	f := newServiceFixture(Config{})
	sess := NewSession(dialTestConn(t), alice, testRoom, f.svc)

	sess.Close()
	sess.Close()

	// Both calls converge on one teardown: one unsubscribe, one presence
	// removal, one presence broadcast, and the same final count the first
	// call produced.
	assert.Equal(t, []string{testRoom.Channel()}, f.bus.unsubscribed)
	assert.Equal(t, []string{alice.ID}, f.presence.removed)
	require.Len(t, f.bus.published, 1)
	assert.Equal(t, PresenceCount{Count: 2}, f.bus.published[0].ev)

	select {
	case <-sess.done:
	default:
		t.Fatal("done channel is not closed after Close")
	}
}

func TestSessionEventPumpRendersIntoSendQueue(t *testing.T) {
	f := newServiceFixture(Config{})
	sess := NewSession(nil, alice, testRoom, f.svc)

	payload, err := sess.render(NewMessage{MessageID: 10})
	assert.NoError(t, err)
	assert.Equal(t, []byte("message"), payload)

	payload, err = sess.render(PresenceCount{Count: 4})
	assert.NoError(t, err)
	assert.Equal(t, []byte("count"), payload)
}

func TestSessionRenderDropsUnfetchableMessage(t *testing.T) {
	f := newServiceFixture(Config{})
	f.messages.getErr = assert.AnError
	sess := NewSession(nil, alice, testRoom, f.svc)

	_, err := sess.render(NewMessage{MessageID: 10})
	assert.Error(t, err)
}

func TestSessionEnqueueDropsWhenSendBufferFull(t *testing.T) {
	f := newServiceFixture(Config{})
	sess := NewSession(nil, alice, testRoom, f.svc)

	for i := 0; i < sendBufferSize; i++ {
		sess.enqueue([]byte("frame"))
	}
	sess.enqueue([]byte("overflow"))

	assert.Len(t, sess.send, sendBufferSize)
}
