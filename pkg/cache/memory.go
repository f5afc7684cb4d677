package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuonglevan23/ybproject/core"
)

// Ensure MemoryStore implements core.StoreWithStats
var _ core.StoreWithStats = (*MemoryStore)(nil)

// Config configures MemoryStore behavior. A zero TTL keeps entries forever.
type Config struct {
	TTL     time.Duration
	MaxSize int
}

// MemoryStore is an in-process core.Store. It is the default session store
// and does not survive a restart.
type MemoryStore struct {
	entries map[string]*record
	mu      sync.RWMutex
	ttl     time.Duration
	maxSize int

	// counters
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

type record struct {
	value    []byte
	storedAt time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(c Config) *MemoryStore {
	if c.MaxSize <= 0 {
		c.MaxSize = 500
	}

	return &MemoryStore{
		entries: make(map[string]*record),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
	}
}

// Get returns a copy of the stored value
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	rec, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&s.misses, 1)
		return nil, core.ErrKeyNotFound
	}

	if s.ttl > 0 && time.Since(rec.storedAt) > s.ttl {
		atomic.AddInt64(&s.misses, 1)
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == rec {
			delete(s.entries, key)
			atomic.AddInt64(&s.evictions, 1)
		}
		s.mu.Unlock()
		return nil, core.ErrKeyNotFound
	}

	atomic.AddInt64(&s.hits, 1)
	out := make([]byte, len(rec.value))
	copy(out, rec.value)
	return out, nil
}

// Set stores a copy of value under key
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Simple eviction if full
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		for k := range s.entries {
			delete(s.entries, k)
			atomic.AddInt64(&s.evictions, 1)
			break
		}
	}

	v := make([]byte, len(value))
	copy(v, value)
	s.entries[key] = &record{value: v, storedAt: time.Now()}

	atomic.AddInt64(&s.sets, 1)
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, existed := s.entries[key]; existed {
		delete(s.entries, key)
		atomic.AddInt64(&s.deletes, 1)
	}
	return nil
}

// Clear removes every entry
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*record)
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns store statistics
func (s *MemoryStore) Stats() core.StoreStats {
	return core.StoreStats{
		Hits:      atomic.LoadInt64(&s.hits),
		Misses:    atomic.LoadInt64(&s.misses),
		Sets:      atomic.LoadInt64(&s.sets),
		Deletes:   atomic.LoadInt64(&s.deletes),
		Evictions: atomic.LoadInt64(&s.evictions),
		Size:      s.Len(),
		TTL:       s.ttl,
	}
}
