// Package session keeps short-lived per-user conversation state, such as
// "the next text message is a post link" or "a withdraw menu is open".
package session

import (
	"context"
	"sync"
	"time"
)

// State names a pending conversation step.
type State string

// Conversation states.
const (
	StateNone             State = ""
	StateAwaitingPostLink State = "awaiting_post_link"
	StateWithdrawMenu     State = "withdraw_menu"
)

// Store keeps at most one state per user and state kind.
type Store interface {
	// Set arms state for the user until ttl elapses.
	Set(ctx context.Context, userID int64, state State, ttl time.Duration) error
	// Has reports whether state is armed for the user.
	Has(ctx context.Context, userID int64, state State) (bool, error)
	// Take disarms state and reports whether it was armed.
	Take(ctx context.Context, userID int64, state State) (bool, error)
	// Clear disarms every state of the user.
	Clear(ctx context.Context, userID int64) error
}

type memoryKey struct {
	userID int64
	state  State
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[memoryKey]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[memoryKey]time.Time),
		now:     time.Now,
	}
}

// Set arms state for the user until ttl elapses.
func (s *MemoryStore) Set(_ context.Context, userID int64, state State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey{userID, state}] = s.now().Add(ttl)
	return nil
}

// Has reports whether state is armed and not expired.
func (s *MemoryStore) Has(_ context.Context, userID int64, state State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(memoryKey{userID, state}), nil
}

// Take disarms state and reports whether it was armed.
func (s *MemoryStore) Take(_ context.Context, userID int64, state State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{userID, state}
	live := s.liveLocked(key)
	delete(s.entries, key)
	return live, nil
}

// Clear disarms every state of the user.
func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.userID == userID {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryStore) liveLocked(key memoryKey) bool {
	expires, ok := s.entries[key]
	if !ok {
		return false
	}
	if !s.now().Before(expires) {
		delete(s.entries, key)
		return false
	}
	return true
}
