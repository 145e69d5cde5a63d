package services

import (
	"strings"
	"sync"
	"time"
)

// keySeparator joins composite cache key parts.
const keySeparator = ":"

// KeyOf builds a composite cache key.
func KeyOf(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// CacheEntry is a stored value and the time it was written.
type CacheEntry[T any] struct {
	Value     T
	Timestamp time.Time
}

// ExpiringStore is a thread-safe map whose entries expire after a TTL.
// Expired entries are evicted lazily when read.
type ExpiringStore[T any] struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewExpiringStore creates a store. A nil clock uses time.Now.
func NewExpiringStore[T any](ttl time.Duration, now func() time.Time) *ExpiringStore[T] {
	if now == nil {
		now = time.Now
	}
	return &ExpiringStore[T]{
		entries: make(map[string]CacheEntry[T]),
		ttl:     ttl,
		now:     now,
	}
}

func (s *ExpiringStore[T]) expired(e CacheEntry[T]) bool {
	return s.now().Sub(e.Timestamp) > s.ttl
}

// Get returns the value for key. Expired entries are removed and reported
// as a miss.
func (s *ExpiringStore[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if !s.expired(entry) {
		return entry.Value, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A writer may have refreshed the entry since the read lock was released.
	entry, ok = s.entries[key]
	if !ok {
		return zero, false
	}
	if !s.expired(entry) {
		return entry.Value, true
	}
	delete(s.entries, key)
	return zero, false
}

// Put stores value under key, stamped with the current time.
func (s *ExpiringStore[T]) Put(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = CacheEntry[T]{Value: value, Timestamp: s.now()}
}

// Restore stores value under key with an explicit timestamp.
// Used when loading persisted state.
func (s *ExpiringStore[T]) Restore(key string, value T, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = CacheEntry[T]{Value: value, Timestamp: ts}
}

// Invalidate removes key and reports whether it was present.
func (s *ExpiringStore[T]) Invalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok
}

// Clear removes everything.
func (s *ExpiringStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]CacheEntry[T])
}

// Entries returns a copy of all live entries.
func (s *ExpiringStore[T]) Entries() map[string]CacheEntry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]CacheEntry[T], len(s.entries))
	for key, entry := range s.entries {
		if !s.expired(entry) {
			out[key] = entry
		}
	}
	return out
}

// Compact evicts every expired entry and returns how many were evicted.
func (s *ExpiringStore[T]) Compact() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for key, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (s *ExpiringStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
