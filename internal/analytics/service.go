package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/cache"
	"github.com/samirwankhede/stayinsights/internal/metrics"
	"github.com/samirwankhede/stayinsights/internal/reservations"
)

var ErrInvalidRequest = errors.New("analytics: invalid request")

const (
	maxWindowMonths  = 36
	defaultListLimit = 50
	maxListLimit     = 500
)

// Fetcher retrieves the records overlapping [from, to). A nil filter is
// unrestricted.
type Fetcher interface {
	Fetch(ctx context.Context, from, to time.Time, filter []string) ([]reservations.Record, error)
}

// PropertyCounter supplies the number of managed properties when no fixed
// capacity is configured.
type PropertyCounter interface {
	CountManaged(ctx context.Context) (int, error)
}

type Options struct {
	WindowMonths int
	// TotalProperties fixes occupancy capacity. Zero asks the PropertyCounter.
	TotalProperties int
	DashboardTTL    time.Duration
	HistoryTTL      time.Duration
	ListTTL         time.Duration
}

// Service assembles scoped, cached analytics responses.
type Service struct {
	log     *zap.Logger
	scopes  *ScopeResolver
	fetcher Fetcher
	cache   cache.Store
	clock   cache.Clock
	counter PropertyCounter
	opts    Options
}

type ServiceOption func(*Service)

func WithClock(c cache.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

func WithPropertyCounter(c PropertyCounter) ServiceOption {
	return func(s *Service) { s.counter = c }
}

func NewService(log *zap.Logger, scopes *ScopeResolver, fetcher Fetcher, store cache.Store, opts Options, extra ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.WindowMonths <= 0 {
		opts.WindowMonths = DefaultWindowMonths
	}
	s := &Service{
		log:     log,
		scopes:  scopes,
		fetcher: fetcher,
		cache:   store,
		clock:   cache.SystemClock,
		opts:    opts,
	}
	for _, o := range extra {
		o(s)
	}
	return s
}

// ReportRequest asks for `Months` buckets ending with the month of Anchor.
type ReportRequest struct {
	Anchor time.Time
	Months int
	TTL    time.Duration
	// Name labels the build duration metric.
	Name string
}

// Dashboard is the live rolling window ending this month.
func (s *Service) Dashboard(ctx context.Context, caller Caller, months int) ([]byte, error) {
	return s.Report(ctx, caller, ReportRequest{
		Anchor: s.clock.Now(),
		Months: months,
		TTL:    s.opts.DashboardTTL,
		Name:   "dashboard",
	})
}

// History covers January to December of a past or current year.
func (s *Service) History(ctx context.Context, caller Caller, year int) ([]byte, error) {
	if year < 2000 || year > s.clock.Now().Year() {
		return nil, fmt.Errorf("%w: year %d out of range", ErrInvalidRequest, year)
	}
	return s.Report(ctx, caller, ReportRequest{
		Anchor: time.Date(year, time.December, 1, 0, 0, 0, 0, time.UTC),
		Months: 12,
		TTL:    s.opts.HistoryTTL,
		Name:   "history",
	})
}

// Report resolves the caller's scope, then serves the window from cache or
// builds it. A caller scoped to no properties gets a zero report without any
// upstream call.
func (s *Service) Report(ctx context.Context, caller Caller, req ReportRequest) ([]byte, error) {
	months := req.Months
	if months <= 0 {
		months = s.opts.WindowMonths
	}
	if months > maxWindowMonths {
		return nil, fmt.Errorf("%w: at most %d months", ErrInvalidRequest, maxWindowMonths)
	}
	name := req.Name
	if name == "" {
		name = "report"
	}

	scope := s.scopes.Resolve(ctx, caller.Role, caller.OwnerID)
	full := s.scopes.IsElevated(caller.Role)
	window := NewWindow(req.Anchor, months)

	if scope.Empty() {
		s.log.Info("caller has no properties, returning empty report",
			zap.String("role", scope.Role), zap.String("owner_id", caller.OwnerID))
		rep := BuildReport(window, 0, s.clock.Now())
		if !full {
			rep.Redact()
		}
		return json.Marshal(rep)
	}

	key := fmt.Sprintf("analytics:report:v1:%s:%s:%s:%s",
		window.Start().Format("2006-01"), window.End().Format("2006-01"), scope.cacheKey(), visibility(full))

	return s.cache.GetOrCompute(ctx, key, req.TTL, func(ctx context.Context) ([]byte, error) {
		timer := prometheus.NewTimer(metrics.ReportBuildDuration.WithLabelValues(name))
		defer timer.ObserveDuration()

		records, err := s.fetcher.Fetch(ctx, window.Start(), window.End(), scope.Filter())
		if err != nil {
			return nil, err
		}
		Aggregate(records, window)
		rep := BuildReport(window, s.totalProperties(ctx, scope), s.clock.Now())
		if !full {
			rep.Redact()
		}
		return json.Marshal(rep)
	})
}

// ListRequest pages through the scoped records overlapping [From, To).
type ListRequest struct {
	From   time.Time
	To     time.Time
	Offset int
	Limit  int
}

type ReservationPage struct {
	Total   int                   `json:"total"`
	Offset  int                   `json:"offset"`
	Limit   int                   `json:"limit"`
	Records []reservations.Record `json:"records"`
}

// Reservations lists scoped records. Charges are stripped for callers
// without an elevated role.
func (s *Service) Reservations(ctx context.Context, caller Caller, req ListRequest) ([]byte, error) {
	if !req.From.Before(req.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidRequest)
	}
	if req.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", ErrInvalidRequest)
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if req.Limit > maxListLimit {
		req.Limit = maxListLimit
	}

	scope := s.scopes.Resolve(ctx, caller.Role, caller.OwnerID)
	full := s.scopes.IsElevated(caller.Role)
	if scope.Empty() {
		return json.Marshal(ReservationPage{Offset: req.Offset, Limit: req.Limit, Records: []reservations.Record{}})
	}

	key := "analytics:reservations:v1:" + req.From.UTC().Format(time.RFC3339) + ":" + req.To.UTC().Format(time.RFC3339) +
		":" + strconv.Itoa(req.Offset) + ":" + strconv.Itoa(req.Limit) + ":" + scope.cacheKey() + ":" + visibility(full)

	return s.cache.GetOrCompute(ctx, key, s.opts.ListTTL, func(ctx context.Context) ([]byte, error) {
		timer := prometheus.NewTimer(metrics.ReportBuildDuration.WithLabelValues("reservations"))
		defer timer.ObserveDuration()

		records, err := s.fetcher.Fetch(ctx, req.From, req.To, scope.Filter())
		if err != nil {
			return nil, err
		}
		page := ReservationPage{Total: len(records), Offset: req.Offset, Limit: req.Limit, Records: []reservations.Record{}}
		if req.Offset < len(records) {
			end := req.Offset + req.Limit
			if end > len(records) {
				end = len(records)
			}
			for _, r := range records[req.Offset:end] {
				if !full {
					r.Charges = nil
				}
				page.Records = append(page.Records, r)
			}
		}
		return json.Marshal(page)
	})
}

// totalProperties is the capacity occupancy is measured against: the
// configured figure when set, the caller's own properties when scoped, and
// every managed property otherwise.
func (s *Service) totalProperties(ctx context.Context, scope Scope) int {
	if s.opts.TotalProperties > 0 {
		return s.opts.TotalProperties
	}
	if scope.Restricted {
		return len(scope.PropertyIDs)
	}
	if s.counter == nil {
		return 0
	}
	n, err := s.counter.CountManaged(ctx)
	if err != nil {
		s.log.Error("counting managed properties failed, occupancy will read 0", zap.Error(err))
		return 0
	}
	return n
}

func visibility(full bool) string {
	if full {
		return "full"
	}
	return "redacted"
}
