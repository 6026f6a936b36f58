// Package app assembles the analytics engine from configuration so the
// server, the export worker and the report CLI share one wiring.
package app

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/analytics"
	"github.com/samirwankhede/stayinsights/internal/cache"
	"github.com/samirwankhede/stayinsights/internal/config"
	redisx "github.com/samirwankhede/stayinsights/internal/redis"
	"github.com/samirwankhede/stayinsights/internal/reservations"
	"github.com/samirwankhede/stayinsights/internal/store"
	"github.com/samirwankhede/stayinsights/internal/store/properties"
	"github.com/samirwankhede/stayinsights/internal/store/sqlite"
)

// PropertyDirectory is the local owner-to-property mapping, whichever
// backend holds it.
type PropertyDirectory interface {
	ExternalIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	CountManaged(ctx context.Context) (int, error)
	AddProperty(ctx context.Context, ownerID, externalID, name string) error
}

type Engine struct {
	Service   *analytics.Service
	Scopes    *analytics.ScopeResolver
	Directory PropertyDirectory
	// DB is nil when the directory lives in SQLite.
	DB *store.DB
	// Redis is nil unless the result cache is backed by it.
	Redis *redis.Client

	memories []*cache.Memory
	closers  []func()
}

// NewEngine opens the directory and cache backends named in cfg and builds
// the analytics service on top of the reservation client.
func NewEngine(ctx context.Context, cfg config.Config, log *zap.Logger) (*Engine, error) {
	e := &Engine{}

	switch cfg.DirectoryBackend {
	case "sqlite":
		dir, err := sqlite.Open(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func() { _ = dir.Close() })
		e.Directory = dir
	default:
		db, err := store.NewDB(ctx, cfg.PostgresURL, int32(cfg.MaxDBConnections))
		if err != nil {
			return nil, fmt.Errorf("db init: %w", err)
		}
		e.closers = append(e.closers, db.Close)
		e.DB = db
		e.Directory = properties.NewPropertiesRepository(db, log)
	}

	var results cache.Store
	switch cfg.CacheBackend {
	case "redis":
		client, err := redisx.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("redis init: %w", err)
		}
		e.closers = append(e.closers, func() { _ = client.Close() })
		e.Redis = client
		results = redisx.NewResultCache(client, log)
	default:
		mem := cache.NewMemory(cache.WithLogger(log), cache.WithName("reports"))
		e.memories = append(e.memories, mem)
		results = mem
	}

	client, err := reservations.NewClient(reservations.ClientConfig{
		BaseURL: cfg.ReservationsBaseURL,
		Token:   cfg.ReservationsAPIToken,
		Timeout: cfg.ReservationsTimeout,
	}, log)
	if err != nil {
		e.Close()
		return nil, err
	}
	channels := cache.NewMemory(cache.WithLogger(log), cache.WithName("channels"))
	e.memories = append(e.memories, channels)
	enricher := reservations.NewEnricher(client, channels, cfg.ChannelCacheTTL, cfg.EnrichConcurrency, log)
	fetcher := reservations.NewFetcher(client, reservations.FetcherConfig{
		PageSize: cfg.ReservationsPageSize,
		MaxPages: cfg.ReservationsMaxPages,
	}, log, reservations.WithEnricher(enricher))

	e.Scopes = analytics.NewScopeResolver(e.Directory, cfg.ElevatedRoles, log)
	e.Service = analytics.NewService(log, e.Scopes, fetcher, results, analytics.Options{
		WindowMonths:    cfg.ReportWindowMonths,
		TotalProperties: cfg.TotalManagedProperties,
		DashboardTTL:    cfg.DashboardCacheTTL,
		HistoryTTL:      cfg.HistoryCacheTTL,
		ListTTL:         cfg.ListCacheTTL,
	}, analytics.WithPropertyCounter(e.Directory))
	return e, nil
}

// SweepEvery drops expired in-process cache entries every interval until ctx
// is done, so idle keys do not wait for the next write to be reclaimed.
func (e *Engine) SweepEvery(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, m := range e.memories {
				m.Sweep()
			}
		}
	}
}

// Close releases backends in reverse order of opening.
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}
