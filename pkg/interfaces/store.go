package interfaces

import (
	"context"

	"pairchat/pkg/types"
)

// MessageStore is the durable, append-only message table keyed by room.
// The store assigns message IDs and timestamps; persistence must complete
// before a message is broadcast.
type MessageStore interface {
	// Append persists a new message and returns the server-assigned
	// record (id + createdAt filled in).
	Append(ctx context.Context, roomID, senderID, receiverID, content string) (*types.Message, error)

	// Recent returns up to limit of the newest messages in the room,
	// ordered ascending by createdAt for direct history replay.
	Recent(ctx context.Context, roomID string, limit int) ([]*types.Message, error)

	// HealthCheck verifies backend connectivity.
	HealthCheck(ctx context.Context) error

	// Close releases the backend connection. Synchronous: pending writes
	// complete before it returns.
	Close() error
}
