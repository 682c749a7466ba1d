package pairing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pairchat/pkg/interfaces"
	"pairchat/pkg/types"
)

// SQLiteDirectory implements the PairingDirectory interface over the
// pairings table. Pairing rows are written by the pairing flow outside
// this core; the unique member indexes enforce "a user belongs to at most
// one relation at a time" at the database level.
type SQLiteDirectory struct {
	db *sql.DB
}

// NewSQLiteDirectory creates a directory over an already-opened and
// migrated database handle. The directory does not own the handle.
func NewSQLiteDirectory(db *sql.DB) *SQLiteDirectory {
	return &SQLiteDirectory{db: db}
}

// GetPartnerRelation returns the relation the user belongs to, or
// ErrNoPartnerRelation when no pairing row references the user.
func (d *SQLiteDirectory) GetPartnerRelation(ctx context.Context, userID string) (*types.PartnerRelation, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, member_a, member_b
		FROM pairings
		WHERE member_a = ? OR member_b = ?
	`, userID, userID)

	var relation types.PartnerRelation
	err := row.Scan(&relation.ID, &relation.MemberA, &relation.MemberB)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, interfaces.ErrNoPartnerRelation
		}
		return nil, fmt.Errorf("failed to query pairing: %w", err)
	}

	return &relation, nil
}

// CreatePairing inserts a new relation between two users. Used by seed
// tooling and tests; the production pairing flow lives outside this core.
func (d *SQLiteDirectory) CreatePairing(ctx context.Context, memberA, memberB string) (*types.PartnerRelation, error) {
	relation := &types.PartnerRelation{
		ID:      uuid.New().String(),
		MemberA: memberA,
		MemberB: memberB,
	}
	if err := relation.Validate(); err != nil {
		return nil, err
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO pairings (id, member_a, member_b, created_at)
		VALUES (?, ?, ?, ?)
	`, relation.ID, relation.MemberA, relation.MemberB, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert pairing: %w", err)
	}

	return relation, nil
}
