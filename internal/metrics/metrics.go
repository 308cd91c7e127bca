// Package metrics declares the process-wide Prometheus collectors
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResponsesSubmitted counts submissions, status: accepted/rejected
	ResponsesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_responses_submitted_total",
			Help: "Total number of survey response submissions",
		},
		[]string{"status"},
	)

	// ResponsesImported counts records stored through bulk import
	ResponsesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_responses_imported_total",
			Help: "Total number of survey responses stored by bulk import",
		},
	)

	// ReportDuration times report computation, kind: summary/stratified
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_report_duration_seconds",
			Help:    "Time spent computing reports",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// ReportCache counts cache lookups, result: hit/miss/error
	ReportCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_report_cache_total",
			Help: "Report cache lookups by result",
		},
		[]string{"result"},
	)

	// DashboardClients is the number of connected dashboard sockets
	DashboardClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_dashboard_clients_current",
			Help: "Current number of connected dashboard clients",
		},
	)

	// HTTPRequests counts REST requests by route template and status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)
)
