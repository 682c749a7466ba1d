package interfaces

import "context"

// IdentityProvider resolves an inbound connection's credential to a stable
// user identity. The only capability the core consumes from the identity
// system.
type IdentityProvider interface {
	// Authenticate resolves a bearer token to a user ID. Returns
	// ErrUnauthorized when the credential is missing, malformed, expired
	// or otherwise invalid.
	Authenticate(ctx context.Context, token string) (string, error)
}
