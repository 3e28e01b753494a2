/*
Package chat is the realtime core of the chatgrid server: the broadcast bus,
the per-connection session actor and the service that ties them to the
durable stores.

Only lightweight events cross the bus. A new message travels as its id alone;
every subscriber re-reads the record from the store before rendering, so each
of them sees data committed after its own fetch rather than a copy captured
at broadcast time. Presence counts are carried by value.
*/
package chat

// Event is a broadcast bus event. The variant set is closed: session actors
// match on the concrete types exhaustively.
type Event interface {
	isEvent()
}

// NewMessage announces that a message was appended to the room's store.
// Subscribers fetch the full record by id before delivering it.
type NewMessage struct {
	MessageID int64
}

func (NewMessage) isEvent() {}

// PresenceCount announces the room's current online count. The count is
// final as computed by the broadcasting side; no re-fetch is needed.
type PresenceCount struct {
	Count int64
}

func (PresenceCount) isEvent() {}
