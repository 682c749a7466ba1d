package database

import (
	"database/sql"
	"fmt"
	"time"

	// SQLite driver registered for database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// Config holds SQLite connection settings shared by the message store and
// the pairing directory.
type Config struct {
	Path            string
	MaxConnections  int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns connection settings suitable for a single-node
// deployment.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxConnections:  10,
		ConnMaxLifetime: 30 * time.Second,
		ConnMaxIdleTime: 10 * time.Second,
	}
}

// Open opens the SQLite database with WAL mode, busy timeout and foreign
// keys enabled, and applies all pending migrations.
func Open(cfg *Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pool limits matter for concurrent reads; all writes go through a
	// single writer goroutine regardless.
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := ApplyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return db, nil
}
