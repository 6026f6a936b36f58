package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/metrics"
)

const defaultSweepEvery = 256

type entry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

// Memory is a process-local Store guarded by a mutex. Expired entries are
// dropped lazily on read and swept every few hundred writes.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   Clock
	log     *zap.Logger
	name    string
	writes  int

	hits   int64
	misses int64
}

type MemoryOption func(*Memory)

func WithClock(c Clock) MemoryOption {
	return func(m *Memory) { m.clock = c }
}

func WithLogger(log *zap.Logger) MemoryOption {
	return func(m *Memory) { m.log = log }
}

// WithName labels the cache in metrics and logs.
func WithName(name string) MemoryOption {
	return func(m *Memory) { m.name = name }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: map[string]entry{},
		clock:   SystemClock,
		log:     zap.NewNop(),
		name:    "memory",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if v, ok := m.get(key); ok {
		atomic.AddInt64(&m.hits, 1)
		metrics.CacheLookupsTotal.WithLabelValues(m.name, "hit").Inc()
		m.log.Debug("cache hit", zap.String("cache", m.name), zap.String("key", key))
		return v, nil
	}
	atomic.AddInt64(&m.misses, 1)
	metrics.CacheLookupsTotal.WithLabelValues(m.name, "miss").Inc()

	// compute runs outside the lock so a slow upstream never blocks other keys.
	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if ttl > 0 {
		m.set(key, v, ttl)
	}
	return v, nil
}

func (m *Memory) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.fresh(m.clock.Now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) set(key string, v []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.entries[key] = entry{value: v, storedAt: now, ttl: ttl}
	m.writes++
	if m.writes%defaultSweepEvery == 0 {
		m.sweepLocked(now)
	}
}

// Sweep removes every expired entry and returns how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.clock.Now())
}

func (m *Memory) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range m.entries {
		if !e.fresh(now) {
			delete(m.entries, k)
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug("swept expired cache entries", zap.String("cache", m.name), zap.Int("removed", removed))
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns hit and miss counts since construction.
func (m *Memory) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&m.hits), atomic.LoadInt64(&m.misses)
}

var _ Store = (*Memory)(nil)
