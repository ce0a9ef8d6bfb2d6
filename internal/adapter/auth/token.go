package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rmontes/storefront/internal/core/domain"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenResolver verifies HS256 bearer tokens carrying the caller identity in
// their claims.
type TokenResolver struct {
	secret []byte
}

func NewTokenResolver(secret []byte) *TokenResolver {
	return &TokenResolver{secret: secret}
}

func (r *TokenResolver) Resolve(tokenString string) (*domain.Caller, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := domain.Role(c.Role)
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, ErrInvalidToken
	}
	return &domain.Caller{ID: c.Subject, Email: c.Email, Role: role}, nil
}

// Issue mints a token for the caller. Used by operational tooling and tests;
// credential verification itself lives outside this system.
func (r *TokenResolver) Issue(caller domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: caller.Email,
		Role:  string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(r.secret)
}
