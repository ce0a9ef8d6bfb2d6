package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

var ErrUnauthenticated = errors.New("authentication required")

// Resolver turns request credentials into one caller identity. Precedence is
// token first, session fallback: when a bearer token is present it decides
// the outcome alone, so an invalid token is never rescued by a live session.
type Resolver struct {
	tokens   *TokenResolver
	sessions port.SessionStore
}

func NewResolver(tokens *TokenResolver, sessions port.SessionStore) *Resolver {
	return &Resolver{tokens: tokens, sessions: sessions}
}

func (r *Resolver) Resolve(ctx context.Context, bearerToken, sessionID string) (*domain.Caller, error) {
	if bearerToken != "" {
		caller, err := r.tokens.Resolve(bearerToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return caller, nil
	}

	if sessionID != "" {
		caller, err := r.sessions.GetSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("resolve session: %w", err)
		}
		if caller != nil {
			return caller, nil
		}
	}

	return nil, ErrUnauthenticated
}
