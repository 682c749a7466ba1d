package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pairchat/pkg/interfaces"
	"pairchat/pkg/types"
)

// JWTProvider implements the IdentityProvider interface over HS256 bearer
// tokens. The token subject carries the user ID; any parse or validation
// failure maps to ErrUnauthorized so callers never learn why a credential
// was rejected.
type JWTProvider struct {
	secret []byte
}

// NewJWTProvider creates a provider with the given signing secret.
func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

// Authenticate resolves a bearer token to a user ID.
func (p *JWTProvider) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", interfaces.ErrUnauthorized
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", interfaces.ErrUnauthorized
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || !types.IsValidUserID(subject) {
		return "", interfaces.ErrUnauthorized
	}

	return subject, nil
}

// IssueToken signs a token for the given user. Used by tests and by seed
// tooling; the login flow that hands tokens to real clients lives outside
// this core.
func (p *JWTProvider) IssueToken(userID string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}
