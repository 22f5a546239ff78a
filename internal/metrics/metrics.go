package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the Stackvest collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stackvest",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackvest",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stackvest",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackvest",
			Subsystem: "accrual",
			Name:      "sweep_runs_total",
			Help:      "Accrual and maturity sweeps executed.",
		},
		[]string{"sweep"},
	)

	sweepRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackvest",
			Subsystem: "accrual",
			Name:      "sweep_records_total",
			Help:      "Records processed by sweeps, by outcome.",
		},
		[]string{"sweep", "outcome"},
	)

	sweepAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackvest",
			Subsystem: "accrual",
			Name:      "sweep_amount_cents_total",
			Help:      "Minor units credited or released by sweeps.",
		},
		[]string{"sweep"},
	)

	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stackvest",
			Subsystem: "accrual",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"sweep"},
	)

	outboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackvest",
			Subsystem: "outbox",
			Name:      "messages_total",
			Help:      "Outbox messages handled by the dispatcher, by result.",
		},
		[]string{"result"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackvest",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"scope"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		sweepRuns,
		sweepRecords,
		sweepAmount,
		sweepDuration,
		outboxPublished,
		rateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request counts and latency labelled by the chi route pattern,
// so path parameters never become label values.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordSweep records one sweep run and its per-record outcomes.
func RecordSweep(sweep string, credited, skipped, failed int, amount int64, duration time.Duration) {
	if sweep == "" {
		sweep = "unknown"
	}
	sweepRuns.WithLabelValues(sweep).Inc()
	sweepRecords.WithLabelValues(sweep, "credited").Add(float64(credited))
	sweepRecords.WithLabelValues(sweep, "skipped").Add(float64(skipped))
	sweepRecords.WithLabelValues(sweep, "failed").Add(float64(failed))
	if amount > 0 {
		sweepAmount.WithLabelValues(sweep).Add(float64(amount))
	}
	sweepDuration.WithLabelValues(sweep).Observe(duration.Seconds())
}

// RecordOutbox counts one dispatcher outcome: "published" or "failed".
func RecordOutbox(result string) {
	outboxPublished.WithLabelValues(result).Inc()
}

// RecordRateLimited counts a rejected request for scope.
func RecordRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
