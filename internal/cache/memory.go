package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry struct {
	val     []byte
	expires time.Time // zero means no expiry beyond the cache-wide TTL
}

// Memory is a bounded in-process cache backed by an expirable LRU. Each
// value may carry its own deadline, shorter than the cache-wide one. When
// full, expired entries are dropped first and then the least recently used.
//
// Safe for concurrent use.
type Memory struct {
	lru     *expirable.LRU[string, entry]
	max     int
	nowFunc func() time.Time
}

// NewMemory returns a cache holding at most maxEntries values (<= 0 means
// 1024). Entries never outlive maxTTL; <= 0 leaves only per-entry TTLs.
func NewMemory(maxEntries int, maxTTL time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Memory{
		lru:     expirable.NewLRU[string, entry](maxEntries, nil, maxTTL),
		max:     maxEntries,
		nowFunc: time.Now,
	}
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if e.expired(m.nowFunc()) {
		m.lru.Remove(key)
		return nil, ErrMiss
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, nil
}

// Set implements Cache. A ttl <= 0 stores the value until the cache-wide
// TTL or eviction.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := m.nowFunc()
	e := entry{val: make([]byte, len(value))}
	copy(e.val, value)
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}

	if !m.lru.Contains(key) && m.lru.Len() >= m.max {
		m.dropExpired(now)
	}
	m.lru.Add(key, e)
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Close implements Cache.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int { return m.lru.Len() }

// dropExpired removes entries past their own deadline so the LRU only
// evicts live values.
func (m *Memory) dropExpired(now time.Time) {
	for _, k := range m.lru.Keys() {
		if e, ok := m.lru.Peek(k); ok && e.expired(now) {
			m.lru.Remove(k)
		}
	}
}
