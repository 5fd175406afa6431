// Package cache provides the key/value stores injected into the data layer.
// Two implementations exist: Memory for a single process and RedisStore for
// a shared cache.  Both honour a per-entry TTL and explicit invalidation.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a byte-valued cache with TTL and explicit invalidation.
type Store interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores val for ttl.  A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Delete removes the given keys.  Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is an in-process Store safe for concurrent use.  Expired entries
// are swept on Set at most once per sweep interval, and once the store
// holds maxEntries the entries closest to expiry are evicted first.
type Memory struct {
	mu         sync.Mutex
	items      map[string]entry
	now        func() time.Time
	maxEntries int
	sweepEvery time.Duration
	lastSweep  time.Time
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithMaxEntries bounds the store.  n <= 0 leaves it unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) { m.maxEntries = n }
}

// WithSweepInterval sets how often Set removes expired entries.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *Memory) { m.sweepEvery = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory returns an empty in-process store holding at most 10000
// entries, swept every minute.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:      make(map[string]entry),
		now:        time.Now,
		maxEntries: 10000,
		sweepEvery: time.Minute,
	}
	for _, o := range opts {
		o(m)
	}
	m.lastSweep = m.now()
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	now := m.now()
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.lastSweep) >= m.sweepEvery {
		m.sweepLocked(now)
	}
	if _, ok := m.items[key]; !ok && m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		m.sweepLocked(now)
		for len(m.items) >= m.maxEntries {
			m.evictOneLocked()
		}
	}
	m.items[key] = e
	return nil
}

func (m *Memory) sweepLocked(now time.Time) {
	for k, e := range m.items {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(m.items, k)
		}
	}
	m.lastSweep = now
}

// evictOneLocked drops the entry expiring soonest.  Entries without expiry
// go last.
func (m *Memory) evictOneLocked() {
	var (
		victim string
		at     time.Time
		found  bool
	)
	for k, e := range m.items {
		switch {
		case !found:
		case e.expires.IsZero():
			continue
		case !at.IsZero() && !e.expires.Before(at):
			continue
		}
		victim, at, found = k, e.expires, true
	}
	if found {
		delete(m.items, victim)
	}
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	for k := range m.items {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.items, k)
		}
	}
	m.mu.Unlock()
	return nil
}

// Len reports the number of entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
