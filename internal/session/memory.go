package session

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	pending Pending
	expires time.Time
}

// MemoryStore keeps sessions in process. Expired sessions are dropped
// lazily on access and on Save.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{items: make(map[string]memoryItem), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source used for expiry.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Save(_ context.Context, p Pending) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, it := range s.items {
		if !now.Before(it.expires) {
			delete(s.items, id)
		}
	}
	if p.ID == "" {
		p.ID = newID()
	}
	s.items[p.ID] = memoryItem{pending: p, expires: now.Add(s.ttl)}
	return p.ID, nil
}

func (s *MemoryStore) Load(_ context.Context, userID, id string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return Pending{}, ErrSessionNotFound
	}
	if !s.now().Before(it.expires) {
		delete(s.items, id)
		return Pending{}, ErrSessionNotFound
	}
	if it.pending.UserID != userID {
		return Pending{}, ErrSessionNotFound
	}
	return it.pending, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}
