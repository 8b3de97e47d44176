package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process expiring cache
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates a memory cache; expired items are purged every cleanup interval
func NewMemory(defaultTTL, cleanup time.Duration) *Memory {
	return &Memory{items: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	val, found := m.items.Get(key)
	if !found {
		return nil, false
	}
	b, ok := val.([]byte)
	return b, ok
}

// Set stores value; a zero ttl uses the cache default
func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.items.Delete(key)
	return nil
}

func (m *Memory) Clear() error {
	m.items.Flush()
	return nil
}

// Len returns the number of unexpired items
func (m *Memory) Len() int {
	return m.items.ItemCount()
}
