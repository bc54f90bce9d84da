// Package session caches authenticated sessions for the lifetime of a token.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/puskata/library-service/internal/app/domain/user"
)

// ErrNotFound is returned when a token has no live session.
var ErrNotFound = errors.New("session not found")

// Session pairs a bearer token with the signed-in user's profile.
type Session struct {
	Token     string    `json:"token"`
	User      user.User `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store caches sessions keyed by token.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// HashToken derives the cache key for a token so raw tokens are never stored
// as keys.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
