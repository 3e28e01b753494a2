/*
Package room defines chat rooms and their durable store.

A room is identified by its (kind, name) pair. Global rooms are open to
everyone and keep no member set; group and private rooms are visible to
members only, and a private room always holds exactly two of them.
*/
package room

import (
	"sort"
	"strings"
	"time"
)

// Kind classifies a room.
type Kind string

const (
	KindGlobal  Kind = "global"
	KindGroup   Kind = "group"
	KindPrivate Kind = "private"
)

// ParseKind validates a kind string from an URL or payload.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindGlobal, KindGroup, KindPrivate:
		return Kind(s), true
	}
	return "", false
}

// Identity is the unique (kind, name) pair naming a room.
type Identity struct {
	Kind Kind
	Name string
}

// Channel returns the logical broadcast channel for the room,
// "<kind>-<name>", shared by every server process addressing it.
func (i Identity) Channel() string {
	return string(i.Kind) + "-" + i.Name
}

// Room is a persisted chat room.
type Room struct {
	ID          int64
	Kind        Kind
	Name        string
	Description string
	ImageURL    string

	// CreatorID is empty for pre-seeded system rooms.
	CreatorID string

	CreatedAt time.Time
}

// Identity returns the room's (kind, name) identity.
func (r Room) Identity() Identity {
	return Identity{Kind: r.Kind, Name: r.Name}
}

// Channel returns the room's broadcast channel name.
func (r Room) Channel() string {
	return r.Identity().Channel()
}

// GroupName builds the canonical name of a group room, prefixed with its
// creator so two users can own groups with the same display name.
func GroupName(creatorUsername, name string) string {
	return creatorUsername + "-group-" + name
}

// PrivateName builds the canonical name of a private room between two users.
// Usernames are sorted so both participants derive the same name.
func PrivateName(usernameA, usernameB string) string {
	names := []string{usernameA, usernameB}
	sort.Strings(names)
	return strings.Join(names, "_")
}
