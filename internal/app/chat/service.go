package chat

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"chatgrid/internal/app/message"
	"chatgrid/internal/app/room"
	"chatgrid/internal/app/user"
	"chatgrid/internal/pkg/errs"
	"chatgrid/internal/pkg/logx"
)

// RoomStore is the slice of the room store the realtime core depends on.
type RoomStore interface {
	Get(ctx context.Context, kind room.Kind, name string) (room.Room, error)
	IsMember(ctx context.Context, roomID int64, userID string) (bool, error)
}

// MessageStore is the durable message gateway: a write must be readable by
// id immediately afterwards from any process.
type MessageStore interface {
	Create(ctx context.Context, params message.CreateParams) (message.Message, error)
	Get(ctx context.Context, id int64) (message.Message, error)
}

// PresenceStore tracks connected users per room in shared storage.
// Add and Remove are idempotent.
type PresenceStore interface {
	Add(ctx context.Context, id room.Identity, userID string) error
	Remove(ctx context.Context, id room.Identity, userID string) error
	Count(ctx context.Context, id room.Identity) (int64, error)
}

// Renderer serializes events into wire payloads. Implementations must be
// safe for concurrent use by many sessions.
type Renderer interface {
	Message(msg message.Message, viewerID string) ([]byte, error)
	OnlineCount(count int64) ([]byte, error)
}

// Config carries the tunables of the realtime core.
type Config struct {
	// StoreTimeout bounds every durable-store round trip. An expired
	// deadline fails the triggering operation visibly instead of hanging
	// the session.
	StoreTimeout time.Duration

	// PresenceIncludeSelf switches the broadcast count from "others online"
	// (raw cardinality minus one, the contract clients render against) to
	// the raw cardinality.
	PresenceIncludeSelf bool
}

// Service orchestrates the realtime core: connect-time authorization, the
// post-and-broadcast sequence, presence accounting and session teardown.
type Service struct {
	bus      Bus
	rooms    RoomStore
	messages MessageStore
	presence PresenceStore
	renderer Renderer
	cfg      Config
	logger   zerolog.Logger
}

// NewService wires the realtime core together.
func NewService(bus Bus, rooms RoomStore, messages MessageStore, presence PresenceStore, renderer Renderer, cfg Config) *Service {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}

	return &Service{
		bus:      bus,
		rooms:    rooms,
		messages: messages,
		presence: presence,
		renderer: renderer,
		cfg:      cfg,
		logger:   logx.Logger().With().Str("component", "ChatService").Logger(),
	}
}

// storeCtx derives the bounded context used for store round trips.
func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// mapStoreErr folds context expiry into the store error codes; CustomErrors
// pass through untouched.
func mapStoreErr(err error) error {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.NewError(errs.ErrStoreTimeout)
	}
	return err
}

// ResolveRoom resolves and authorizes a connection target before any state
// is touched: an unknown identity fails with RoomNotFound, a non-member of
// a non-global room with Unauthorized. Nothing is subscribed or counted
// until this returns successfully.
func (s *Service) ResolveRoom(ctx context.Context, kind room.Kind, name string, viewer user.User) (room.Room, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	rm, err := s.rooms.Get(ctx, kind, name)
	if err != nil {
		return room.Room{}, mapStoreErr(err)
	}

	if rm.Kind != room.KindGlobal {
		isMember, err := s.rooms.IsMember(ctx, rm.ID, viewer.ID)
		if err != nil {
			return room.Room{}, mapStoreErr(err)
		}
		if !isMember {
			return room.Room{}, errs.NewError(errs.ErrUnauthorized)
		}
	}

	return rm, nil
}

// Register runs the accept sequence for a resolved session: subscribe to
// the room's channel, mark the user present, broadcast the fresh count.
// A presence failure rolls the subscription back so no half-registered
// session is left behind.
func (s *Service) Register(ctx context.Context, sess *Session) error {
	channel := sess.room.Channel()

	s.bus.Subscribe(channel, sess)

	addCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.presence.Add(addCtx, sess.room.Identity(), sess.user.ID); err != nil {
		s.bus.Unsubscribe(channel, sess)
		return mapStoreErr(err)
	}

	s.BroadcastPresence(ctx, sess.room.Identity())

	return nil
}

// Deregister runs the teardown sequence: unsubscribe, remove presence,
// broadcast the decremented count. It runs on every connection-ending path
// and every step is idempotent, so a duplicate call is harmless. A fresh
// background context is used because the connection's context is usually
// already dead.
func (s *Service) Deregister(sess *Session) {
	channel := sess.room.Channel()

	s.bus.Unsubscribe(channel, sess)

	ctx, cancel := s.storeCtx(context.Background())
	defer cancel()

	if err := s.presence.Remove(ctx, sess.room.Identity(), sess.user.ID); err != nil {
		s.logger.Error().Err(err).
			Str("channel", channel).
			Str("user_id", sess.user.ID).
			Msg("Failed to remove presence entry during teardown.")
	}

	s.BroadcastPresence(ctx, sess.room.Identity())
}

// BroadcastPresence publishes the room's current online count. Unless
// configured otherwise the delivered value is the raw set cardinality minus
// one: the receiving viewer is not counted among the "others online" it
// sees. That convention is part of the client contract.
func (s *Service) BroadcastPresence(ctx context.Context, id room.Identity) {
	countCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	count, err := s.presence.Count(countCtx, id)
	if err != nil {
		s.logger.Error().Err(err).
			Str("channel", id.Channel()).
			Msg("Failed to read presence count, skipping broadcast.")
		return
	}

	if !s.cfg.PresenceIncludeSelf {
		count--
	}

	if err := s.bus.Publish(id.Channel(), PresenceCount{Count: count}); err != nil {
		s.logger.Error().Err(err).
			Str("channel", id.Channel()).
			Msg("Failed to publish presence count.")
	}
}

// PostMessage persists a message and announces it on the room's channel.
// This is the single post-and-broadcast operation shared by the websocket
// inbound path and the HTTP upload side-channel. If persistence fails no
// broadcast is attempted; subscribers never see a partial send.
func (s *Service) PostMessage(ctx context.Context, rm room.Room, author user.User, body string, att *message.Attachment) (message.Message, error) {
	createCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	msg, err := s.messages.Create(createCtx, message.CreateParams{
		Room:       rm,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Body:       body,
		Attachment: att,
	})
	if err != nil {
		return message.Message{}, mapStoreErr(err)
	}

	if err := s.bus.Publish(rm.Channel(), NewMessage{MessageID: msg.ID}); err != nil {
		s.logger.Error().Err(err).
			Str("channel", rm.Channel()).
			Int64("message_id", msg.ID).
			Msg("Message persisted but broadcast failed.")
	}

	return msg, nil
}

// FetchMessage re-reads a broadcast message by id for one subscriber.
func (s *Service) FetchMessage(ctx context.Context, id int64) (message.Message, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		return message.Message{}, mapStoreErr(err)
	}
	return msg, nil
}
