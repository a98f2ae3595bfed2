package storage

import (
	"context"
	"net"
	"sync"
	"time"
)

type memoryEntry struct {
	rec       SessionRecord
	expiresAt time.Time
}

// MemoryStore keeps records for ttl in process memory. A ttl of zero keeps
// them forever.
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
		entries: map[string]memoryEntry{},
	}
}

func (s *MemoryStore) PutSession(_ context.Context, rec SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(now)

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
	}
	s.entries[Key(rec.Username, net.ParseIP(rec.IP))] = memoryEntry{
		rec:       rec,
		expiresAt: expiresAt,
	}
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, username string, ip net.IP) (SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[Key(username, ip)]
	if !ok || e.expired(s.now()) {
		return SessionRecord{}, ErrNotFound
	}
	return e.rec, nil
}

// Prune drops every expired record and returns how many were dropped.
func (s *MemoryStore) Prune(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evict(s.now()), nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) evict(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
