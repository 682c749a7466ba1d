package interfaces

import "errors"

// Common collaborator errors used across components. Both are fatal to a
// connection: the session manager closes the socket without joining a room.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNoPartnerRelation = errors.New("no partner relation for user")
)
