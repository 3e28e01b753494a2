package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatgrid/internal/app/room"
	"chatgrid/internal/app/user"
	"chatgrid/internal/pkg/logx"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size from the peer.
	maxMessageSize = 8192

	// Buffered events pending per session before it counts as a slow
	// consumer and gets dropped by the bus.
	eventBufferSize = 64

	// Buffered outbound frames per session.
	sendBufferSize = 256
)

// inboundFrame is what the client sends over the socket.
type inboundFrame struct {
	Message string `json:"message"`
}

// Session is the actor behind one websocket connection. It owns the
// connection exclusively: ReadPump is the only reader, WritePump the only
// writer, and EventPump turns bus events into outbound frames. All three
// run as goroutines for the lifetime of the connection.
type Session struct {
	conn   *websocket.Conn
	user   user.User
	room   room.Room
	svc    *Service
	logger zerolog.Logger

	events chan Event
	send   chan []byte

	// done is closed exactly once on teardown. The events channel is never
	// closed; pending publishers check done instead.
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession builds a session for an accepted connection on a resolved,
// authorized room. The caller must still Register it and start the pumps.
func NewSession(conn *websocket.Conn, usr user.User, rm room.Room, svc *Service) *Session {
	return &Session{
		conn: conn,
		user: usr,
		room: rm,
		svc:  svc,
		logger: logx.Logger().With().
			Str("component", "Session").
			Str("channel", rm.Channel()).
			Str("user_id", usr.ID).
			Logger(),
		events: make(chan Event, eventBufferSize),
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Deliver hands ev to the session without blocking. A closing session
// reports success so the bus does not tear it down a second time; a live
// session with a full event buffer reports failure and is dropped by the
// bus as a slow consumer.
func (s *Session) Deliver(ev Event) bool {
	select {
	case <-s.done:
		return true
	default:
	}

	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Close tears the session down: deregister from the bus and the presence
// set, release the pumps, close the socket. Every connection-ending path
// funnels through here and the whole sequence runs at most once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.svc.Deregister(s)
		close(s.done)
		s.conn.Close()
	})
}

// ReadPump consumes inbound frames until the connection dies, then closes
// the session. It is the connection's sole reader.
func (s *Session) ReadPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Warn().Err(err).Msg("Websocket closed unexpectedly.")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Malformed frames are dropped; the connection stays up.
			s.logger.Warn().Err(err).Msg("Dropping malformed inbound frame.")
			continue
		}

		if _, err := s.svc.PostMessage(context.Background(), s.room, s.user, frame.Message, nil); err != nil {
			// The sender gets no direct echo of its own message; a failed
			// post surfaces only here and as a missing broadcast.
			s.logger.Error().Err(err).Msg("Failed to post inbound message.")
		}
	}
}

// EventPump renders bus events into outbound frames. Each session fetches
// and renders independently, so one subscriber's failure never affects the
// rest of the room: an event that cannot be fetched or rendered is logged
// and dropped for this session only.
func (s *Session) EventPump() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			payload, err := s.render(ev)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to render event, dropping it.")
				continue
			}
			s.enqueue(payload)
		}
	}
}

func (s *Session) render(ev Event) ([]byte, error) {
	switch ev := ev.(type) {
	case NewMessage:
		msg, err := s.svc.FetchMessage(context.Background(), ev.MessageID)
		if err != nil {
			return nil, err
		}
		return s.svc.renderer.Message(msg, s.user.ID)
	case PresenceCount:
		return s.svc.renderer.OnlineCount(ev.Count)
	default:
		return nil, nil
	}
}

// enqueue queues an outbound frame without blocking the event loop.
func (s *Session) enqueue(payload []byte) {
	if payload == nil {
		return
	}
	select {
	case s.send <- payload:
	default:
		s.logger.Warn().Msg("Send buffer full, dropping outbound frame.")
	}
}

// WritePump writes queued frames and keepalive pings to the peer. It is
// the connection's sole writer.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Run registers the session and starts its pumps. On a registration
// failure the socket is closed with a policy violation and nothing else
// has to be undone, since Register rolls itself back.
func (s *Session) Run(ctx context.Context) error {
	if err := s.svc.Register(ctx, s); err != nil {
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "registration failed"),
			time.Now().Add(writeWait))
		s.conn.Close()
		return err
	}

	go s.WritePump()
	go s.EventPump()
	go s.ReadPump()

	return nil
}
