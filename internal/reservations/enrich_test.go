package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirwankhede/stayinsights/internal/cache"
)

type fakeResolver struct {
	mu    sync.Mutex
	names map[string]string
	calls map[string]int
}

func (r *fakeResolver) ChannelName(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[id]++
	name, ok := r.names[id]
	if !ok {
		return "", errors.New("channel not found")
	}
	return name, nil
}

func TestEnrichResolvesMissingSources(t *testing.T) {
	res := &fakeResolver{names: map[string]string{"c1": "Airbnb", "c2": "Vrbo"}}
	e := NewEnricher(res, cache.NewMemory(), time.Hour, 2, nil)

	in := []Record{
		{ID: "1", ChannelID: "c1"},
		{ID: "2", ChannelID: "c1"},
		{ID: "3", ChannelID: "c2", Source: "Marketplace"},
		{ID: "4", ChannelID: "missing"},
		{ID: "5"},
	}
	out := e.Enrich(context.Background(), in)
	require.Len(t, out, 5)

	assert.Equal(t, "Airbnb", out[0].Source)
	assert.Equal(t, "Airbnb", out[1].Source)
	assert.Equal(t, "Marketplace", out[2].Source)
	assert.Equal(t, DefaultSource, out[3].SourceLabel())
	assert.Equal(t, DefaultSource, out[4].SourceLabel())

	assert.Equal(t, 1, res.calls["c1"])
	assert.Zero(t, res.calls["c2"])
	assert.Empty(t, in[0].Source)
}

func TestEnrichUsesLookupCache(t *testing.T) {
	res := &fakeResolver{names: map[string]string{"c1": "Airbnb"}}
	lookups := cache.NewMemory()
	e := NewEnricher(res, lookups, time.Hour, 0, nil)
	ctx := context.Background()

	e.Enrich(ctx, []Record{{ID: "1", ChannelID: "c1"}})
	e.Enrich(ctx, []Record{{ID: "2", ChannelID: "c1"}})
	assert.Equal(t, 1, res.calls["c1"])
	assert.Equal(t, 1, lookups.Len())
}

func TestFetcherRunsEnricher(t *testing.T) {
	records := makeRecords(2, "p1")
	records[0].ChannelID = "c1"
	src := &fakeSource{records: records}
	res := &fakeResolver{names: map[string]string{"c1": "Airbnb"}}
	f := NewFetcher(src, FetcherConfig{PageSize: 10}, nil, WithEnricher(NewEnricher(res, nil, 0, 1, nil)))

	got, err := f.Fetch(context.Background(), from, to, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, "Airbnb", got[0].Source)
	assert.Equal(t, DefaultSource, got[1].SourceLabel())
}
