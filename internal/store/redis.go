package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pairchat/pkg/types"
)

// Redis key prefix: room:msgs:{roomID} holds the room's messages as a
// list of JSON documents in append order.
const roomMessagesPrefix = "room:msgs:"

// RedisStore implements the MessageStore interface on a Redis list per
// room. Redis serializes the RPUSH, which is the only ordering guarantee
// the core requires from the store.
type RedisStore struct {
	rdb *redis.Client
}

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore creates a Redis-backed message store.
func NewRedisStore(opts RedisOptions) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisStore{rdb: rdb}
}

// Append persists a new message at the tail of the room's list.
func (s *RedisStore) Append(ctx context.Context, roomID, senderID, receiverID, content string) (*types.Message, error) {
	message := &types.Message{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := s.rdb.RPush(ctx, roomMessagesPrefix+roomID, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	return message, nil
}

// Recent returns up to limit of the newest messages in the room, ordered
// ascending by createdAt. The list is already in append order, so the
// trailing window is the answer.
func (s *RedisStore) Recent(ctx context.Context, roomID string, limit int) ([]*types.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.rdb.LRange(ctx, roomMessagesPrefix+roomID, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	messages := make([]*types.Message, 0, len(raw))
	for _, item := range raw {
		var message types.Message
		if err := json.Unmarshal([]byte(item), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

// HealthCheck verifies Redis connectivity.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
