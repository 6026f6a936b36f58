package redisx

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/cache"
	"github.com/samirwankhede/stayinsights/internal/metrics"
)

// ResultCache is a cache.Store shared by every API replica. Redis being
// unreachable degrades to computing every request, never to an error.
type ResultCache struct {
	client redis.Cmdable
	prefix string
	log    *zap.Logger
}

func NewResultCache(client redis.Cmdable, log *zap.Logger) *ResultCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultCache{client: client, prefix: "stayinsights:", log: log}
}

func (r *ResultCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute cache.ComputeFunc) ([]byte, error) {
	k := r.prefix + key
	v, err := r.client.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		metrics.CacheLookupsTotal.WithLabelValues("redis", "hit").Inc()
		return v, nil
	case errors.Is(err, redis.Nil):
		metrics.CacheLookupsTotal.WithLabelValues("redis", "miss").Inc()
	default:
		metrics.CacheLookupsTotal.WithLabelValues("redis", "error").Inc()
		r.log.Warn("redis cache read failed", zap.String("key", k), zap.Error(err))
	}

	v, err = compute(ctx)
	if err != nil {
		return nil, err
	}
	if ttl > 0 {
		if err := r.client.Set(ctx, k, v, ttl).Err(); err != nil {
			r.log.Warn("redis cache write failed", zap.String("key", k), zap.Error(err))
		}
	}
	return v, nil
}

var _ cache.Store = (*ResultCache)(nil)
