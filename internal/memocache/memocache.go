// Package memocache provides the in-process memoization layer used by the
// reporting endpoints: a key/value store with lazy per-read TTL expiry and
// manual invalidation. Entries are idempotently recomputable snapshots, so
// last-writer-wins semantics are sufficient.
package memocache

import (
	"sync"
	"time"
)

// TTLs used by the reporting layer. Zone reference data changes rarely and
// gets a longer window.
const (
	TTLAnalytics      = 5 * time.Minute
	TTLFranchiseStats = 5 * time.Minute
	TTLZones          = 10 * time.Minute
	TTLRequests       = 2 * time.Minute
)

type entry struct {
	data     any
	storedAt time.Time
}

// Store is a mutex-guarded TTL cache. The TTL is a property of the read, not
// of the entry: distinct callers may apply different windows to the same key.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New returns an empty Store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Store with an injected clock for tests.
func NewWithClock(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{entries: make(map[string]entry), now: now}
}

// Get returns the value stored under key if it is younger than ttl. Entries
// older than ttl are removed on read; there is no background sweep.
func (s *Store) Get(key string, ttl time.Duration) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) > ttl {
		delete(s.entries, key)
		return nil, false
	}
	return e.data, true
}

// Age reports how long ago the entry under key was stored.
func (s *Store) Age(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return 0, false
	}
	return s.now().Sub(e.storedAt), true
}

// Set stores data under key with the current timestamp.
func (s *Store) Set(key string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{data: data, storedAt: s.now()}
}

// Invalidate removes a single entry.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// ClearAll drops every entry.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

// Stats reports current size and keys, for the diagnostics endpoint.
func (s *Store) Stats() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return len(s.entries), keys
}

// Lookup fetches a typed value from the store. A stored value of a different
// type counts as a miss rather than a panic.
func Lookup[T any](s *Store, key string, ttl time.Duration) (T, bool) {
	var zero T
	raw, ok := s.Get(key, ttl)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
