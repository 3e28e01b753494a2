package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatgrid/internal/app/db"
	"chatgrid/internal/app/room"
	"chatgrid/internal/pkg/errs"
)

// HistoryLimit is how many messages a history fetch returns at most.
const HistoryLimit = 60

// Store persists messages in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateParams carries a new message. Attachment may be nil.
type CreateParams struct {
	Room       room.Room
	AuthorID   string
	AuthorName string
	Body       string
	Attachment *Attachment
}

// Create appends a message. The author's membership is checked inside the
// insert statement so a revoked membership between connect and send cannot
// slip a message in: global rooms always pass, any other kind requires a
// current room_members row.
func (s *Store) Create(ctx context.Context, params CreateParams) (Message, error) {
	if params.Body == "" && params.Attachment == nil {
		return Message{}, errs.NewError(errs.ErrMessageEmpty)
	}
	if len(params.Body) > MaxBodyBytes {
		return Message{}, errs.NewError(errs.ErrMessageContentTooLong)
	}

	att := params.Attachment
	if att == nil {
		att = &Attachment{}
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO messages (room_id, author_id, author_name, body, file_url, file_type, file_name)
		 SELECT $1, $2, $3, $4, $5, $6, $7
		 WHERE EXISTS (SELECT 1 FROM rooms r WHERE r.id = $1 AND r.kind = 'global')
		    OR EXISTS (SELECT 1 FROM room_members m WHERE m.room_id = $1 AND m.user_id = $2)
		 RETURNING id, created_at`,
		params.Room.ID, params.AuthorID, params.AuthorName,
		params.Body, att.URL, att.MimeType, att.FileName,
	)

	msg := Message{
		RoomID:     params.Room.ID,
		AuthorID:   params.AuthorID,
		AuthorName: params.AuthorName,
		Body:       params.Body,
		Attachment: params.Attachment,
	}

	err := row.Scan(&msg.ID, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, errs.NewError(errs.ErrAuthorNotMember)
	}
	if db.IsCheckViolation(err) {
		return Message{}, errs.NewError(errs.ErrMessageEmpty)
	}
	if err != nil {
		return Message{}, fmt.Errorf("failed to insert message: %w", err)
	}

	return msg, nil
}

const messageColumns = `id, room_id, author_id, author_name, body, file_url, file_type, file_name, created_at`

func scanMessage(row pgx.Row) (Message, error) {
	var (
		msg Message
		att Attachment
	)
	err := row.Scan(&msg.ID, &msg.RoomID, &msg.AuthorID, &msg.AuthorName,
		&msg.Body, &att.URL, &att.MimeType, &att.FileName, &msg.CreatedAt)
	if err != nil {
		return Message{}, err
	}
	if att.URL != "" {
		msg.Attachment = &att
	}
	return msg, nil
}

// Get fetches a message by id.
func (s *Store) Get(ctx context.Context, id int64) (Message, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)

	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, errs.NewError(errs.ErrMessageNotFound)
	}
	if err != nil {
		return Message{}, fmt.Errorf("failed to fetch message %d: %w", id, err)
	}

	return msg, nil
}

// ListRecent returns the room's newest messages in display order: ascending
// (created_at, id), at most HistoryLimit of them.
func (s *Store) ListRecent(ctx context.Context, roomID int64) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM (
		     SELECT `+messageColumns+` FROM messages
		     WHERE room_id = $1
		     ORDER BY created_at DESC, id DESC
		     LIMIT $2
		 ) recent
		 ORDER BY created_at ASC, id ASC`,
		roomID, HistoryLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		result = append(result, msg)
	}

	return result, rows.Err()
}
