package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"pairchat/pkg/types"
)

// SQLiteStore implements the MessageStore interface on SQLite.
// All writes funnel through a single writer goroutine; SQLite serializes
// writers anyway, and a single writer avoids lock contention entirely.
type SQLiteStore struct {
	db           *sql.DB
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

// writeOperation represents one queued database write.
type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewSQLiteStore creates a message store over an already-opened and
// migrated database handle. The store takes ownership of the handle and
// closes it on Close.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	s := &SQLiteStore{
		db:           db,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writeLoop()

	return s
}

// writeLoop processes all write operations in a single goroutine,
// retrying each failed write exactly once.
func (s *SQLiteStore) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeChannel:
			err := op.operation(s.db)
			if err != nil {
				log.Printf("Message store write failed, retrying: %v", err)
				time.Sleep(100 * time.Millisecond)
				err = op.operation(s.db)
				if err != nil {
					log.Printf("Message store write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-s.shutdown:
			return
		}
	}
}

// executeWrite queues a write operation and waits for completion.
func (s *SQLiteStore) executeWrite(ctx context.Context, operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case s.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-ctx.Done():
		return ctx.Err()
	case <-s.shutdown:
		return ErrStoreClosed
	}
}

// Append persists a new message. The store assigns the id and timestamp;
// any client-provided values are ignored upstream.
func (s *SQLiteStore) Append(ctx context.Context, roomID, senderID, receiverID, content string) (*types.Message, error) {
	message := &types.Message{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	err := s.executeWrite(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO messages (id, room_id, sender_id, receiver_id, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, message.ID, message.RoomID, message.SenderID, message.ReceiverID, message.Content, message.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

// Recent returns up to limit of the newest messages in the room, ordered
// ascending by createdAt. Reads bypass the writer goroutine; the pool
// handles concurrent readers.
func (s *SQLiteStore) Recent(ctx context.Context, roomID string, limit int) ([]*types.Message, error) {
	// Newest-first with LIMIT selects the window, then the slice is
	// reversed so replay order is ascending.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE room_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var newestFirst []*types.Message
	for rows.Next() {
		var message types.Message
		err := rows.Scan(
			&message.ID,
			&message.RoomID,
			&message.SenderID,
			&message.ReceiverID,
			&message.Content,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		newestFirst = append(newestFirst, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	messages := make([]*types.Message, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		messages = append(messages, newestFirst[i])
	}

	return messages, nil
}

// HealthCheck verifies database connectivity.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close drains the writer goroutine and closes the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	return s.db.Close()
}
