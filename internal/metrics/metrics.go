package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stayinsights_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stayinsights_cache_lookups_total",
		Help: "Result cache lookups by backend and outcome",
	}, []string{"cache", "outcome"})

	UpstreamPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayinsights_upstream_pages_total",
		Help: "Reservation pages read from the upstream source",
	})

	UpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stayinsights_upstream_errors_total",
		Help: "Failed upstream calls by kind",
	}, []string{"kind"})

	QuarantinedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayinsights_quarantined_records_total",
		Help: "Upstream records dropped for missing required fields",
	})

	ReportBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stayinsights_report_build_duration_seconds",
		Help:    "Time spent fetching and aggregating a report on a cache miss",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stayinsights_exports_total",
		Help: "Report export outcomes",
	}, []string{"outcome"})
)
