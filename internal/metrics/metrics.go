// Package metrics exposes Prometheus instrumentation for ingestion and
// report generation.
package metrics

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swipely"

// Report outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeTransient = "transient"
	OutcomeError     = "error"
)

// Metrics holds the collectors of the service.
type Metrics struct {
	EventsIngested   *prometheus.CounterVec
	IngestBatches    *prometheus.CounterVec
	ReportDuration   *prometheus.HistogramVec
	ReportCacheLooks *prometheus.CounterVec
	EventsPurged     prometheus.Counter
}

// New creates and registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EventsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Events received by the ingestion API, by result",
		}, []string{"result"}),
		IngestBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Ingestion requests, by HTTP status",
		}, []string{"status"}),
		ReportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "duration_seconds",
			Help:      "Report generation latency, by report kind and outcome",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"report", "outcome"}),
		ReportCacheLooks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "cache_lookups_total",
			Help:      "Report cache lookups, by report kind and result",
		}, []string{"report", "result"}),
		EventsPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "events_purged_total",
			Help:      "Events removed by the retention job",
		}),
	}
}

var defaultMetrics = sync.OnceValue(func() *Metrics {
	return New(prometheus.DefaultRegisterer)
})

// Default returns the collectors registered on the default registry.
func Default() *Metrics {
	return defaultMetrics()
}

// ObserveIngest records one ingestion request.
func (m *Metrics) ObserveIngest(status, accepted, rejected int) {
	m.IngestBatches.WithLabelValues(statusLabel(status)).Inc()
	if accepted > 0 {
		m.EventsIngested.WithLabelValues("accepted").Add(float64(accepted))
	}
	if rejected > 0 {
		m.EventsIngested.WithLabelValues("rejected").Add(float64(rejected))
	}
}

// ObserveReport records how long a report took.
func (m *Metrics) ObserveReport(report, outcome string, elapsed time.Duration) {
	m.ReportDuration.WithLabelValues(report, outcome).Observe(elapsed.Seconds())
}

// ObserveCache records a report cache lookup.
func (m *Metrics) ObserveCache(report string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ReportCacheLooks.WithLabelValues(report, result).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
