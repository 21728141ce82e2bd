// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "treasurer"

var (
	// HTTPRequests counts finished requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Imports counts import attempts. result is "ok", "bad_file", "empty" or "error".
	Imports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Spreadsheet and CSV imports, by layout, mode and result.",
	}, []string{"layout", "mode", "result"})

	ImportRowErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_row_errors_total",
		Help:      "Rows skipped or partly read during imports.",
	})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Workbook exports, by result.",
	}, []string{"result"})

	// LedgerSaves counts flushes of dirty ledgers to storage.
	LedgerSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_saves_total",
		Help:      "Ledger writes to storage, by result.",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Ledgers currently loaded in memory.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an error to the "ok"/"error" label used by the counters above.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
