package store

import "errors"

// Store-related errors.
var (
	ErrStoreClosed    = errors.New("message store is closed")
	ErrUnknownBackend = errors.New("unknown storage backend")
)
