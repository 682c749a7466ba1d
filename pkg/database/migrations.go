package database

import (
	"database/sql"
	"fmt"
)

// Migration represents one schema evolution step. Migrations are embedded
// in the binary so deployments never depend on a migrations directory.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// migrations are applied in slice order; versions are recorded in
// schema_migrations so reapplication is a no-op.
var migrations = []Migration{
	{
		Version:     "001_create_messages",
		Description: "Append-only message table keyed by room",
		SQL: `
			CREATE TABLE IF NOT EXISTS messages (
				id          TEXT PRIMARY KEY,
				room_id     TEXT NOT NULL,
				sender_id   TEXT NOT NULL,
				receiver_id TEXT NOT NULL,
				content     TEXT NOT NULL,
				created_at  DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_messages_room_time
				ON messages(room_id, created_at);
		`,
	},
	{
		Version:     "002_create_pairings",
		Description: "Partner relation records, one row per paired couple",
		SQL: `
			CREATE TABLE IF NOT EXISTS pairings (
				id         TEXT PRIMARY KEY,
				member_a   TEXT NOT NULL,
				member_b   TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				CHECK (member_a <> member_b)
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_pairings_member_a ON pairings(member_a);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_pairings_member_b ON pairings(member_b);
		`,
	},
}

// ApplyMigrations applies all pending migrations. Each migration runs in
// its own transaction together with its version record, so a failure
// leaves the schema at the previous version.
func ApplyMigrations(db *sql.DB) error {
	if err := createMigrationTable(db); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := applyMigration(db, migration); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
	}

	return nil
}

func createMigrationTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func appliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applyMigration(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("migration SQL failed: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, migration.Version); err != nil {
		return fmt.Errorf("failed to record migration version: %w", err)
	}

	return tx.Commit()
}
