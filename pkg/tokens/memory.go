package tokens

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store. Tokens are lost on restart, requiring
// re-authentication each session. Suitable for tests and ephemeral mode.
type MemoryStore struct {
	mu  sync.Mutex
	set *TokenSet
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored set, or nil if empty.
func (s *MemoryStore) Load(_ context.Context) (*TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.set.clone(), nil
}

// Save replaces the stored set.
func (s *MemoryStore) Save(_ context.Context, set *TokenSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = set.clone()
	return nil
}

// Clear removes the stored set.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = nil
	return nil
}

// Verify MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
