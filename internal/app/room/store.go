package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatgrid/internal/app/db"
	"chatgrid/internal/app/user"
	"chatgrid/internal/pkg/errs"
)

// Store persists rooms and their member sets in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const roomColumns = `id, kind, name, description, image_url, COALESCE(creator_id, ''), created_at`

func scanRoom(row pgx.Row) (Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.Kind, &r.Name, &r.Description, &r.ImageURL, &r.CreatorID, &r.CreatedAt)
	return r, err
}

// Get resolves a room by its (kind, name) identity.
func (s *Store) Get(ctx context.Context, kind Kind, name string) (Room, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE kind = $1 AND name = $2`,
		kind, name,
	)

	r, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		return Room{}, fmt.Errorf("failed to fetch room %s/%s: %w", kind, name, err)
	}

	return r, nil
}

// IsMember reports whether userID belongs to the room's member set.
// Global rooms have no member set; callers treat them as open.
func (s *Store) IsMember(ctx context.Context, roomID int64, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`,
		roomID, userID,
	).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// Members returns the member set of a room.
func (s *Store) Members(ctx context.Context, roomID int64) ([]user.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, username FROM room_members WHERE room_id = $1 ORDER BY username`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, u)
	}

	return members, rows.Err()
}

// ListForViewer returns the rooms of one kind visible to the viewer:
// every global room, or the group/private rooms the viewer belongs to.
func (s *Store) ListForViewer(ctx context.Context, kind Kind, viewerID string) ([]Room, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if kind == KindGlobal {
		rows, err = s.pool.Query(ctx,
			`SELECT `+roomColumns+` FROM rooms WHERE kind = $1 ORDER BY name`,
			kind,
		)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+roomColumns+` FROM rooms r
			 WHERE r.kind = $1
			   AND EXISTS (SELECT 1 FROM room_members m WHERE m.room_id = r.id AND m.user_id = $2)
			 ORDER BY r.name`,
			kind, viewerID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var result []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		result = append(result, r)
	}

	return result, rows.Err()
}

// CreateGroupParams carries everything needed to create a group room.
type CreateGroupParams struct {
	Name        string
	Description string
	ImageURL    string
	Creator     user.User
	Members     []user.User
}

// CreateGroup inserts a group room together with its member set. The creator
// is always added as a member regardless of the supplied list.
func (s *Store) CreateGroup(ctx context.Context, params CreateGroupParams) (Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Room{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO rooms (kind, name, description, image_url, creator_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+roomColumns,
		KindGroup, params.Name, params.Description, params.ImageURL, params.Creator.ID,
	)

	r, err := scanRoom(row)
	if db.IsUniqueViolation(err) {
		return Room{}, errs.NewError(errs.ErrRoomExists)
	}
	if err != nil {
		return Room{}, fmt.Errorf("failed to insert room: %w", err)
	}

	members := append([]user.User{params.Creator}, params.Members...)
	for _, m := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO room_members (room_id, user_id, username)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (room_id, user_id) DO NOTHING`,
			r.ID, m.ID, m.Username,
		); err != nil {
			return Room{}, fmt.Errorf("failed to add member %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Room{}, fmt.Errorf("failed to commit room creation: %w", err)
	}

	return r, nil
}

// UpdateGroupParams carries the editable fields of a group room.
type UpdateGroupParams struct {
	Description string
	ImageURL    string

	// Members replaces the member set when non-nil; the creator is always
	// kept in it.
	Members []user.User
}

// UpdateGroup rewrites a group room's mutable fields and, optionally, its
// member set.
func (s *Store) UpdateGroup(ctx context.Context, rm Room, params UpdateGroupParams) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE rooms SET description = $1, image_url = $2 WHERE id = $3`,
		params.Description, params.ImageURL, rm.ID,
	); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	if params.Members != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM room_members WHERE room_id = $1 AND user_id <> $2`,
			rm.ID, rm.CreatorID,
		); err != nil {
			return fmt.Errorf("failed to reset member set: %w", err)
		}

		for _, m := range params.Members {
			if _, err := tx.Exec(ctx,
				`INSERT INTO room_members (room_id, user_id, username)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (room_id, user_id) DO NOTHING`,
				rm.ID, m.ID, m.Username,
			); err != nil {
				return fmt.Errorf("failed to add member %s: %w", m.ID, err)
			}
		}
	}

	return tx.Commit(ctx)
}

// GetOrCreatePrivate resolves the private room between two users, creating
// it with both members on first use. The canonical name is derived from the
// sorted usernames so either participant reaches the same room.
func (s *Store) GetOrCreatePrivate(ctx context.Context, current, other user.User) (Room, error) {
	name := PrivateName(current.Username, other.Username)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Room{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO rooms (kind, name, description, creator_id)
		 VALUES ($1, $2, 'Private Chat', $3)
		 ON CONFLICT (kind, name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING `+roomColumns,
		KindPrivate, name, current.ID,
	)

	r, err := scanRoom(row)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get or create private room: %w", err)
	}

	for _, m := range []user.User{current, other} {
		if _, err := tx.Exec(ctx,
			`INSERT INTO room_members (room_id, user_id, username)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (room_id, user_id) DO NOTHING`,
			r.ID, m.ID, m.Username,
		); err != nil {
			return Room{}, fmt.Errorf("failed to add member %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Room{}, fmt.Errorf("failed to commit private room: %w", err)
	}

	return r, nil
}

// RemoveMember drops a user from a room's member set. Removing an absent
// member is a no-op.
func (s *Store) RemoveMember(ctx context.Context, roomID int64, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// Delete removes a room by identity, cascading to members and messages.
// It returns the number of rooms deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, kind Kind, name string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM rooms WHERE kind = $1 AND name = $2`,
		kind, name,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete room: %w", err)
	}
	return tag.RowsAffected(), nil
}
