// Package cache memoizes serialized responses for a bounded time.
package cache

import (
	"context"
	"time"
)

// ComputeFunc produces the value to store on a miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Store returns the value cached under key if it is younger than ttl and
// otherwise computes, stores and returns a fresh one. Failed computations are
// not stored. Concurrent misses on the same key may each compute.
type Store interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error)
}

// Clock lets tests control expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
