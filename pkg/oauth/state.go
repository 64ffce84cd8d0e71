package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultStateTTL is how long a generated state remains valid.
const DefaultStateTTL = 10 * time.Minute

// stateBytes is the entropy of a state token before encoding.
const stateBytes = 32

// ErrStateNotFound indicates a state that was never issued, already
// consumed, or expired. Callers must treat all three identically.
var ErrStateNotFound = errors.New("oauth: state not found")

// StateTracker issues and validates single-use CSRF state tokens for the
// authorization flow.
type StateTracker struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]time.Time

	// now is overridable for tests.
	now func() time.Time
}

// NewStateTracker creates a tracker with the given TTL. A zero ttl uses
// DefaultStateTTL.
func NewStateTracker(ttl time.Duration) *StateTracker {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateTracker{
		ttl:    ttl,
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Generate issues a new random state token and records its issue time.
// Expired entries are purged before the new one is inserted.
func (t *StateTracker) Generate() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.purgeLocked()
	t.states[state] = t.now()
	return state, nil
}

// Validate consumes a state token. Expired entries are purged first, so
// abandoned logins do not accumulate; unknown, replayed, and expired
// tokens all return ErrStateNotFound.
func (t *StateTracker) Validate(state string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.purgeLocked()
	if _, ok := t.states[state]; !ok {
		return ErrStateNotFound
	}
	delete(t.states, state)
	return nil
}

// Pending reports how many unconsumed states are currently tracked.
func (t *StateTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.purgeLocked()
	return len(t.states)
}

func (t *StateTracker) purgeLocked() {
	cutoff := t.now().Add(-t.ttl)
	for state, issued := range t.states {
		if issued.Before(cutoff) {
			delete(t.states, state)
		}
	}
}
