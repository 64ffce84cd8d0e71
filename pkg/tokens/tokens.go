// Package tokens provides storage for Strava OAuth credentials.
package tokens

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTokenSet is returned by Save when a token set is missing
// required fields.
var ErrInvalidTokenSet = errors.New("token set must have access_token, refresh_token, and expires_at")

// TokenSet holds the Strava OAuth credential triple. ExpiresAt is the
// absolute expiry as reported by Strava (Unix seconds), never estimated
// client-side.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// ExpiredAt reports whether the access token is expired at the given time.
// A nil set or a zero expiry is treated as expired.
func (t *TokenSet) ExpiredAt(now time.Time) bool {
	if t == nil || t.ExpiresAt == 0 {
		return true
	}
	return now.Unix() >= t.ExpiresAt
}

// Expired reports whether the access token is expired now.
func (t *TokenSet) Expired() bool {
	return t.ExpiredAt(time.Now())
}

// Validate checks the stored-set invariant: all three fields present.
func (t *TokenSet) Validate() error {
	if t == nil || t.AccessToken == "" || t.RefreshToken == "" || t.ExpiresAt == 0 {
		return ErrInvalidTokenSet
	}
	return nil
}

// clone returns an independent copy so callers can never mutate stored state.
func (t *TokenSet) clone() *TokenSet {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Store persists the single token set for the authenticated athlete.
// Implementations must be safe for concurrent use: the OAuth callback
// listener and the tool-serving process share one Store.
type Store interface {
	// Load returns a copy of the stored set, or (nil, nil) if never
	// authenticated or cleared.
	Load(ctx context.Context) (*TokenSet, error)

	// Save atomically replaces any existing set. The set must pass Validate.
	Save(ctx context.Context, set *TokenSet) error

	// Clear removes the stored set. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
