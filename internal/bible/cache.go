package bible

import (
	"sync"
	"time"
)

// Cache is the read-through cache the CachedClient decorates with.
type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
	ClearCache() error
}

type memEntry struct {
	expiresAt time.Time
	data      []byte
}

// MemCache is a process-local Cache with per-entry TTLs. Expired entries are
// dropped lazily on read.
type MemCache struct {
	entries map[string]memEntry
	mu      sync.Mutex
}

func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string]memEntry)}
}

func (m *MemCache) GetCache(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}
	return entry.data, nil
}

func (m *MemCache) SetCache(key string, data []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = memEntry{data: data, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

func (m *MemCache) ClearCache() error {
	m.mu.Lock()
	m.entries = make(map[string]memEntry)
	m.mu.Unlock()
	return nil
}
