package port

import (
	"context"
	"time"

	"github.com/rmontes/storefront/internal/core/domain"
)

type SessionStore interface {
	// GetSession resolves a server-side session reference to a caller
	// identity, returning nil when the session is absent or expired
	GetSession(ctx context.Context, sessionID string) (*domain.Caller, error)

	// PutSession stores the caller under the session ID with a TTL
	PutSession(ctx context.Context, sessionID string, caller domain.Caller, ttl time.Duration) error

	DeleteSession(ctx context.Context, sessionID string) error
}

type IdempotencyStore interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// DeleteIdempotency releases a claimed key so the caller may retry
	DeleteIdempotency(ctx context.Context, key string) error
}
