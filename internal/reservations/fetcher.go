package reservations

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/metrics"
)

const DefaultPageSize = 100

type FetcherConfig struct {
	PageSize int
	// MaxPages caps the pages read per fetch. Zero means no ceiling.
	MaxPages int
}

// Fetcher pages through a Source and returns every record overlapping a range.
type Fetcher struct {
	src      Source
	enricher *Enricher
	pageSize int
	maxPages int
	log      *zap.Logger
}

type FetcherOption func(*Fetcher)

// WithEnricher resolves missing source labels after the fetch completes.
func WithEnricher(e *Enricher) FetcherOption {
	return func(f *Fetcher) { f.enricher = e }
}

func NewFetcher(src Source, cfg FetcherConfig, log *zap.Logger, opts ...FetcherOption) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Fetcher{src: src, pageSize: cfg.PageSize, maxPages: cfg.MaxPages, log: log}
	if f.pageSize <= 0 {
		f.pageSize = DefaultPageSize
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads records overlapping [from, to). A nil filter means unrestricted;
// a non-nil filter restricts the result to those property ids even when
// upstream ignores the listing filter. Any page failure discards the pages
// already read.
func (f *Fetcher) Fetch(ctx context.Context, from, to time.Time, filter []string) ([]Record, error) {
	if filter != nil && len(filter) == 0 {
		return nil, nil
	}

	var all []Record
	for page := 0; ; page++ {
		if f.maxPages > 0 && page >= f.maxPages {
			return nil, &UpstreamError{
				Op:  "list reservations",
				Err: fmt.Errorf("%w: more than %d pages of %d", ErrPageBudgetExceeded, f.maxPages, f.pageSize),
			}
		}
		p, err := f.src.ListReservations(ctx, Query{
			From:        from,
			To:          to,
			PropertyIDs: filter,
			Limit:       f.pageSize,
			Offset:      page * f.pageSize,
		})
		if err != nil {
			f.log.Error("reservation fetch failed", zap.Error(err), zap.Int("page", page))
			return nil, err
		}
		metrics.UpstreamPagesTotal.Inc()
		all = append(all, p.Records...)
		if p.Received < f.pageSize {
			break
		}
	}

	if filter != nil {
		all = FilterByProperty(all, filter)
	}
	if f.enricher != nil {
		all = f.enricher.Enrich(ctx, all)
	}
	f.log.Debug("reservations fetched",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("records", len(all)))
	return all, nil
}

// FilterByProperty keeps the records whose property id is in ids.
func FilterByProperty(records []Record, ids []string) []Record {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := allowed[r.PropertyID]; ok {
			out = append(out, r)
		}
	}
	return out
}
