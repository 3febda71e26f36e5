// Package cache provides a TTL-bounded in-memory store for upstream
// responses. Entries expire lazily: the Get that observes an expired
// entry clears it and reports a miss, so a stale value is never
// returned and the next read triggers a refetch.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the freshness window for all cached resources.
const DefaultTTL = 24 * time.Hour

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a mutex-guarded key/value cache with per-entry expiry.
// Concurrent misses may race to refresh the same key; the store does
// not deduplicate in-flight fetches and the last writer wins.
type Store[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a store with the given default TTL. A non-positive TTL
// falls back to DefaultTTL.
func New[V any](ttl time.Duration) *Store[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key and whether it is fresh. An
// entry is fresh iff now < expiresAt. An expired entry is removed
// before reporting the miss.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the store's default TTL.
func (s *Store[V]) Set(key string, value V) {
	s.SetTTL(key, value, s.ttl)
}

// SetTTL stores value under key with an explicit TTL, overwriting any
// existing entry.
func (s *Store[V]) SetTTL(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
}

// Delete removes key from the store.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len returns the number of entries currently held, including any
// that have expired but not yet been read.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
