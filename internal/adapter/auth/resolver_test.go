package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmontes/storefront/internal/core/domain"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Caller

	// getErr simulates a store outage.
	getErr error
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Caller)}
}

func (m *memSessions) GetSession(_ context.Context, sessionID string) (*domain.Caller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	caller, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &caller, nil
}

func (m *memSessions) PutSession(_ context.Context, sessionID string, caller domain.Caller, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = caller
	return nil
}

func (m *memSessions) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

var testCaller = domain.Caller{ID: "user-1", Email: "user@example.com", Role: domain.RoleUser}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenResolver([]byte("secret"))

	signed, err := tokens.Issue(testCaller, time.Hour)
	require.NoError(t, err)

	caller, err := tokens.Resolve(signed)
	require.NoError(t, err)
	assert.Equal(t, testCaller, *caller)
}

func TestTokenResolve_Expired(t *testing.T) {
	tokens := NewTokenResolver([]byte("secret"))

	signed, err := tokens.Issue(testCaller, -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Resolve(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenResolve_WrongSecret(t *testing.T) {
	signed, err := NewTokenResolver([]byte("secret-a")).Issue(testCaller, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenResolver([]byte("secret-b")).Resolve(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenResolve_UnknownRole(t *testing.T) {
	tokens := NewTokenResolver([]byte("secret"))
	bad := testCaller
	bad.Role = "superuser"

	signed, err := tokens.Issue(bad, time.Hour)
	require.NoError(t, err)

	_, err = tokens.Resolve(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenResolve_Garbage(t *testing.T) {
	_, err := NewTokenResolver([]byte("secret")).Resolve("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolver_TokenWins(t *testing.T) {
	tokens := NewTokenResolver([]byte("secret"))
	sessions := newMemSessions()
	resolver := NewResolver(tokens, sessions)
	ctx := context.Background()

	sessionCaller := domain.Caller{ID: "session-user", Email: "s@example.com", Role: domain.RoleUser}
	require.NoError(t, sessions.PutSession(ctx, "sess-1", sessionCaller, time.Hour))

	signed, err := tokens.Issue(testCaller, time.Hour)
	require.NoError(t, err)

	caller, err := resolver.Resolve(ctx, signed, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, testCaller.ID, caller.ID)
}

func TestResolver_InvalidTokenNotRescuedBySession(t *testing.T) {
	tokens := NewTokenResolver([]byte("secret"))
	sessions := newMemSessions()
	resolver := NewResolver(tokens, sessions)
	ctx := context.Background()

	require.NoError(t, sessions.PutSession(ctx, "sess-1", testCaller, time.Hour))

	_, err := resolver.Resolve(ctx, "garbage-token", "sess-1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolver_SessionFallback(t *testing.T) {
	tokens := NewTokenResolver([]byte("secret"))
	sessions := newMemSessions()
	resolver := NewResolver(tokens, sessions)
	ctx := context.Background()

	require.NoError(t, sessions.PutSession(ctx, "sess-1", testCaller, time.Hour))

	caller, err := resolver.Resolve(ctx, "", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, testCaller.ID, caller.ID)
}

func TestResolver_StoreFailureIsNotUnauthenticated(t *testing.T) {
	sessions := newMemSessions()
	sessions.getErr = errors.New("connection refused")
	resolver := NewResolver(NewTokenResolver([]byte("secret")), sessions)

	_, err := resolver.Resolve(context.Background(), "", "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestResolver_NoCredentials(t *testing.T) {
	resolver := NewResolver(NewTokenResolver([]byte("secret")), newMemSessions())

	_, err := resolver.Resolve(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = resolver.Resolve(context.Background(), "", "unknown-session")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
