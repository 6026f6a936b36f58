package reservations

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samirwankhede/stayinsights/internal/cache"
)

var errEmptyChannelName = errors.New("channel has no name")

// Enricher fills in the source label of records that only carry a channel id.
type Enricher struct {
	resolver ChannelResolver
	lookups  cache.Store
	ttl      time.Duration
	limit    int
	log      *zap.Logger
}

func NewEnricher(resolver ChannelResolver, lookups cache.Store, ttl time.Duration, concurrency int, log *zap.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{resolver: resolver, lookups: lookups, ttl: ttl, limit: concurrency, log: log}
}

// Enrich resolves each distinct channel id once, with at most `limit`
// lookups in flight. Lookup failures leave the label empty so the record
// falls back to DefaultSource.
func (e *Enricher) Enrich(ctx context.Context, records []Record) []Record {
	pending := map[string]struct{}{}
	for _, r := range records {
		if r.Source == "" && r.ChannelID != "" {
			pending[r.ChannelID] = struct{}{}
		}
	}
	if len(pending) == 0 {
		return records
	}

	var (
		mu    sync.Mutex
		names = make(map[string]string, len(pending))
		g     errgroup.Group
	)
	g.SetLimit(e.limit)
	for id := range pending {
		id := id
		g.Go(func() error {
			name, err := e.lookup(ctx, id)
			if err != nil {
				e.log.Warn("channel lookup failed", zap.String("channel_id", id), zap.Error(err))
				return nil
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Record, len(records))
	for i, r := range records {
		if r.Source == "" {
			r.Source = names[r.ChannelID]
		}
		out[i] = r
	}
	return out
}

func (e *Enricher) lookup(ctx context.Context, id string) (string, error) {
	compute := func(ctx context.Context) ([]byte, error) {
		name, err := e.resolver.ChannelName(ctx, id)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, errEmptyChannelName
		}
		return []byte(name), nil
	}
	if e.lookups == nil {
		b, err := compute(ctx)
		return string(b), err
	}
	b, err := e.lookups.GetOrCompute(ctx, "channel:"+id, e.ttl, compute)
	return string(b), err
}
