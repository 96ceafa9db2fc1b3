// Package metrics provides counters, Prometheus collectors, and HTTP
// handlers for exporting readyapp and smoke-harness runtime metrics.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Internal state, source of truth for the JSON snapshot.
var (
	requestsServed int64
	probeRuns      int64
	probeFailures  int64
	lastProbeRun   int64
)

const counterInc int64 = 1

// Prometheus collectors.
var (
	promRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readyapp_http_requests_total",
			Help: "Total HTTP requests served by the application",
		},
		[]string{"path", "code"},
	)
	promProbeRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "readyapp_probe_runs_total",
			Help: "Total smoke probe checks executed",
		},
	)
	promProbeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readyapp_probe_failures_total",
			Help: "Total failed smoke probe checks",
		},
		[]string{"check"},
	)
	promProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "readyapp_probe_duration_seconds",
			Help: "Duration of individual smoke probe checks",
			Buckets: []float64{
				0.5,
				1,
				2,
				5,
				10,
				30,
				60,
			},
		},
	)
	promLastProbeRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "readyapp_last_probe_run_timestamp_seconds",
			Help: "Unix timestamp of the last smoke probe run",
		},
	)
)

func init() {
	prometheus.MustRegister(
		promRequests,
		promProbeRuns,
		promProbeFailures,
		promProbeDuration,
		promLastProbeRun,
	)
}

// IncRequest counts one served HTTP request for the given path and status code.
func IncRequest(path, code string) {
	atomic.AddInt64(&requestsServed, counterInc)
	promRequests.WithLabelValues(path, code).Inc()
}

// IncProbeRun counts one executed smoke check.
func IncProbeRun() {
	atomic.AddInt64(&probeRuns, counterInc)
	promProbeRuns.Inc()
}

// IncProbeFailure counts one failed smoke check by name.
func IncProbeFailure(check string) {
	atomic.AddInt64(&probeFailures, counterInc)
	promProbeFailures.WithLabelValues(check).Inc()
}

// ObserveProbeDuration records the duration (in seconds) of a smoke check.
func ObserveProbeDuration(seconds float64) {
	promProbeDuration.Observe(seconds)
}

// SetLastProbeRun stores the provided time as the last probe run timestamp.
func SetLastProbeRun(t time.Time) {
	atomic.StoreInt64(&lastProbeRun, t.Unix())
	promLastProbeRun.Set(float64(t.Unix()))
}

// StatsSnapshot is a snapshot of metrics for JSON encoding.
type StatsSnapshot struct {
	RequestsServed int64  `json:"requests_served"`
	ProbeRuns      int64  `json:"probe_runs"`
	ProbeFailures  int64  `json:"probe_failures"`
	LastProbeRun   int64  `json:"last_probe_run_timestamp"`
	LastProbeHuman string `json:"last_probe_run_human"`
}

// GetSnapshot returns a StatsSnapshot with the current counter values.
func GetSnapshot() StatsSnapshot {
	ts := atomic.LoadInt64(&lastProbeRun)
	return StatsSnapshot{
		RequestsServed: atomic.LoadInt64(&requestsServed),
		ProbeRuns:      atomic.LoadInt64(&probeRuns),
		ProbeFailures:  atomic.LoadInt64(&probeFailures),
		LastProbeRun:   ts,
		LastProbeHuman: time.Unix(ts, 0).Format(time.RFC3339),
	}
}

// PromHandler returns an HTTP handler that exposes Prometheus metrics.
func PromHandler() http.Handler { return promhttp.Handler() }

// JSONHandler returns an HTTP handler that serves the current metrics as
// a JSON-encoded StatsSnapshot.
func JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetSnapshot())
	})
}
