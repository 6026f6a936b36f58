package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func counting(value string, n *int32) ComputeFunc {
	return func(context.Context) ([]byte, error) {
		atomic.AddInt32(n, 1)
		return []byte(value), nil
	}
}

func TestMemoryHitWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock), WithName("test"))
	ctx := context.Background()
	var calls int32

	v, err := m.GetOrCompute(ctx, "k", time.Minute, counting("a", &calls))
	require.NoError(t, err)
	assert.Equal(t, "a", string(v))

	clock.Advance(59 * time.Second)
	v, err = m.GetOrCompute(ctx, "k", time.Minute, counting("b", &calls))
	require.NoError(t, err)
	assert.Equal(t, "a", string(v))
	assert.EqualValues(t, 1, calls)

	clock.Advance(time.Second)
	v, err = m.GetOrCompute(ctx, "k", time.Minute, counting("c", &calls))
	require.NoError(t, err)
	assert.Equal(t, "c", string(v))
	assert.EqualValues(t, 2, calls)

	hits, misses := m.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 2, misses)
}

func TestMemoryPerCallTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock))
	ctx := context.Background()
	var calls int32

	_, _ = m.GetOrCompute(ctx, "live", 30*time.Second, counting("live", &calls))
	_, _ = m.GetOrCompute(ctx, "history", 6*time.Hour, counting("history", &calls))

	clock.Advance(time.Minute)
	_, _ = m.GetOrCompute(ctx, "live", 30*time.Second, counting("live", &calls))
	_, _ = m.GetOrCompute(ctx, "history", 6*time.Hour, counting("history", &calls))
	assert.EqualValues(t, 3, calls)
}

func TestMemoryDoesNotStoreFailures(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := m.GetOrCompute(ctx, "k", time.Minute, func(context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, m.Len())

	var calls int32
	v, err := m.GetOrCompute(ctx, "k", time.Minute, counting("ok", &calls))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(v))
	assert.EqualValues(t, 1, calls)
}

func TestMemoryZeroTTLNeverStores(t *testing.T) {
	m := NewMemory()
	var calls int32
	for i := 0; i < 3; i++ {
		_, err := m.GetOrCompute(context.Background(), "k", 0, counting("v", &calls))
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, calls)
	assert.Zero(t, m.Len())
}

func TestMemorySweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock))
	ctx := context.Background()
	var calls int32

	_, _ = m.GetOrCompute(ctx, "short", time.Second, counting("s", &calls))
	_, _ = m.GetOrCompute(ctx, "long", time.Hour, counting("l", &calls))
	clock.Advance(time.Minute)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%8)
			v, err := m.GetOrCompute(ctx, key, time.Minute, counting(key, &calls))
			assert.NoError(t, err)
			assert.Equal(t, key, string(v))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, m.Len())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(8))
}
