package pairing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pairchat/pkg/interfaces"
	"pairchat/pkg/types"
)

// MemoryDirectory implements the PairingDirectory interface in memory.
// Used by tests and by dev deployments seeded from configuration.
type MemoryDirectory struct {
	mu        sync.RWMutex
	relations map[string]*types.PartnerRelation // userID -> relation
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		relations: make(map[string]*types.PartnerRelation),
	}
}

// Pair creates a relation between two users and indexes it under both
// member IDs.
func (d *MemoryDirectory) Pair(memberA, memberB string) (*types.PartnerRelation, error) {
	relation := &types.PartnerRelation{
		ID:      uuid.New().String(),
		MemberA: memberA,
		MemberB: memberB,
	}
	if err := relation.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.relations[memberA] = relation
	d.relations[memberB] = relation

	return relation, nil
}

// SeedPairs provisions relations from a comma-separated "a:b,c:d" string.
// Used to stand up a dev server without a pairing database.
func (d *MemoryDirectory) SeedPairs(seed string) error {
	if seed == "" {
		return nil
	}
	for _, pair := range strings.Split(seed, ",") {
		members := strings.Split(strings.TrimSpace(pair), ":")
		if len(members) != 2 {
			return fmt.Errorf("invalid pairing seed entry %q, want memberA:memberB", pair)
		}
		if _, err := d.Pair(members[0], members[1]); err != nil {
			return fmt.Errorf("invalid pairing seed entry %q: %w", pair, err)
		}
	}
	return nil
}

// GetPartnerRelation returns the relation the user belongs to, or
// ErrNoPartnerRelation when the user is unpaired.
func (d *MemoryDirectory) GetPartnerRelation(ctx context.Context, userID string) (*types.PartnerRelation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	relation, exists := d.relations[userID]
	if !exists {
		return nil, interfaces.ErrNoPartnerRelation
	}
	return relation, nil
}
