// Package metrics holds the Prometheus collectors for recipe generation and
// HTTP traffic.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vbonduro/eatai/internal/domain"
)

const namespace = "eatai"

// Generation outcomes, used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeUpstream  = "upstream_error"
	OutcomeParse     = "parse_error"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	runPolls           prometheus.Histogram
	illustrations      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recipes",
			Name:      "generations_total",
			Help:      "Recipe generation calls by outcome.",
		}, []string{"outcome"}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recipes",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a recipe generation call.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		}),
		runPolls: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recipes",
			Name:      "run_polls",
			Help:      "Status polls needed before a run reached a terminal state.",
			Buckets:   prometheus.LinearBuckets(1, 5, 12),
		}),
		illustrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recipes",
			Name:      "illustrations_total",
			Help:      "Illustration requests by result.",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Outcome classifies a generation error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrCancelled):
		return OutcomeCancelled
	case errors.Is(err, domain.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, domain.ErrParse):
		return OutcomeParse
	case errors.Is(err, domain.ErrUpstream):
		return OutcomeUpstream
	default:
		return OutcomeError
	}
}

func (m *Metrics) ObserveGeneration(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(Outcome(err)).Inc()
	m.generationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRunPolls(n int) {
	if m == nil {
		return
	}
	m.runPolls.Observe(float64(n))
}

func (m *Metrics) ObserveIllustration(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.illustrations.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request. route is the mux pattern, not the
// raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
