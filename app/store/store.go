package store

import (
	"context"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
)

// OutcomeStore keeps terminal outcomes so a view served by another replica, or
// reloaded after its session was swept, renders the same result.
type OutcomeStore interface {
	Get(ctx context.Context, paymentID string) (*entity.Outcome, error)
	Save(ctx context.Context, outcome entity.Outcome) error
}

type memoryEntry struct {
	outcome   entity.Outcome
	expiresAt time.Time
}

type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns nil on a miss.
func (s *MemoryStore) Get(_ context.Context, paymentID string) (*entity.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[paymentID]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.entries, paymentID)
		return nil, nil
	}
	out := entry.outcome
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, outcome entity.Outcome) error {
	if !outcome.State.Terminal() || outcome.PaymentID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[outcome.PaymentID] = memoryEntry{outcome: outcome, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
