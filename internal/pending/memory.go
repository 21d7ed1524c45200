package pending

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is an in-process Store bounded by TTL and entry count. Entries
// older than ttl are dropped; beyond maxEntries the least recently put entry
// is evicted. A ttl <= 0 disables expiry and maxEntries <= 0 the size bound.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, Candidate]
}

func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, Candidate](maxEntries, nil, ttl),
	}
}

func (m *MemoryStore) Put(_ context.Context, id string, c Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(id, c)
	return nil
}

// Take returns the entry for id and removes it. Concurrent Takes of the same
// id succeed at most once.
func (m *MemoryStore) Take(_ context.Context, id string) (Candidate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cache.Peek(id)
	if !ok {
		return Candidate{}, false, nil
	}
	m.cache.Remove(id)
	return c, true, nil
}

// Len returns the number of live entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache.Keys())
}
