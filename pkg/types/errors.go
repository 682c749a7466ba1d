package types

import "errors"

// Specific error types enable proper error handling and user-facing
// error messages throughout the system.
var (
	ErrInvalidUserID   = errors.New("user ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrEmptyMessage    = errors.New("message content cannot be empty")
	ErrContentTooLarge = errors.New("message content exceeds 64KB limit")
	ErrInvalidRoomID   = errors.New("room ID cannot be empty")
	ErrInvalidRelation = errors.New("partner relation must have two distinct members")
)
