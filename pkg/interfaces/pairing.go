package interfaces

import (
	"context"

	"pairchat/pkg/types"
)

// PairingDirectory maps a user to at most one partner relation (the room)
// and its two member IDs. The pairing itself is created and enforced
// outside this core; the core only reads it.
type PairingDirectory interface {
	// GetPartnerRelation returns the relation the user belongs to.
	// Returns ErrNoPartnerRelation when the user has no pairing.
	GetPartnerRelation(ctx context.Context, userID string) (*types.PartnerRelation, error)
}
