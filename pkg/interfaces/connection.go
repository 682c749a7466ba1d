package interfaces

import "pairchat/pkg/types"

// Connection represents one live client connection as seen by the room
// router and the session manager. Pure abstraction without transport
// details so tests can substitute in-memory implementations.
type Connection interface {
	// WriteEvent sends an event to the client. Implementations must be
	// safe for concurrent use; broadcasts and acks may race.
	WriteEvent(event *types.Event) error

	// Close tears down the connection and releases resources. Must be
	// idempotent.
	Close() error

	// UserID returns the authenticated user's ID, or "" before
	// authentication completes.
	UserID() string

	// RoomID returns the joined room's ID, or "" before the room is
	// resolved.
	RoomID() string
}
