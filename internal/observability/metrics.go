// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	IdentityFallbacks prometheus.Counter
	LockContentions   prometheus.Counter
	LastSuccessfulRun prometheus.Gauge
	PublishErrors     prometheus.Counter
	BarsProcessed     prometheus.Counter

	// Detection metrics
	ZonesTotal      *prometheus.CounterVec
	SignalsEmitted  *prometheus.CounterVec
	SignalsDropped  prometheus.Counter
	FilteredTouches prometheus.Counter

	// Outcome metrics
	OutcomesTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg uses a fresh private registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "zone_signal_lab"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Run metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of runs by status",
		}, []string{"strategy", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Run duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"strategy"}),
		IdentityFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "identity_fallbacks_total",
			Help:      "Run identities computed from the secondary canonical form",
		}),
		LockContentions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "lock_contentions_total",
			Help:      "Runs refused because the same identity was being evaluated",
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of last successful run",
		}),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "publish_errors_total",
			Help:      "Runs persisted but not published",
		}),
		BarsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "bars_processed_total",
			Help:      "Total number of bars evaluated",
		}),

		// Detection metrics
		ZonesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "zones_total",
			Help:      "Zones by lifecycle event (created, expired, consumed, skipped)",
		}, []string{"event"}),
		SignalsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "signals_emitted_total",
			Help:      "Signals emitted by direction",
		}, []string{"direction"}),
		SignalsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "signals_dropped_total",
			Help:      "Malformed signals dropped before resolution",
		}),
		FilteredTouches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "filtered_touches_total",
			Help:      "Zone touches rejected by a filter",
		}),

		// Outcome metrics
		OutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outcome",
			Name:      "records_total",
			Help:      "Outcome records by phase and result",
		}, []string{"phase", "result"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		gatherer: reg,
	}
}

// RunStats is what one run reports to metrics.
type RunStats struct {
	Strategy        string
	Status          string // success | reused | error
	DurationSeconds float64
	Bars            int
	Fallback        bool
}

// DetectionStats mirrors the detector counters.
type DetectionStats struct {
	ZonesCreated    int
	ZonesExpired    int
	ZonesConsumed   int
	ZonesSkipped    int
	FilteredTouches int
	Long            int
	Short           int
	Dropped         int
}

// RecordRun records the end of a run.
func (m *Metrics) RecordRun(s RunStats, nowUnix float64) {
	m.RunsTotal.WithLabelValues(s.Strategy, s.Status).Inc()
	m.RunDuration.WithLabelValues(s.Strategy).Observe(s.DurationSeconds)
	m.BarsProcessed.Add(float64(s.Bars))
	if s.Fallback {
		m.IdentityFallbacks.Inc()
	}
	if s.Status != "error" {
		m.LastSuccessfulRun.Set(nowUnix)
	}
}

// RecordDetection adds detector counters.
func (m *Metrics) RecordDetection(s DetectionStats) {
	m.ZonesTotal.WithLabelValues("created").Add(float64(s.ZonesCreated))
	m.ZonesTotal.WithLabelValues("expired").Add(float64(s.ZonesExpired))
	m.ZonesTotal.WithLabelValues("consumed").Add(float64(s.ZonesConsumed))
	m.ZonesTotal.WithLabelValues("skipped").Add(float64(s.ZonesSkipped))
	m.FilteredTouches.Add(float64(s.FilteredTouches))
	m.SignalsEmitted.WithLabelValues("LONG").Add(float64(s.Long))
	m.SignalsEmitted.WithLabelValues("SHORT").Add(float64(s.Short))
	m.SignalsDropped.Add(float64(s.Dropped))
}

// RecordOutcome counts one outcome record.
func (m *Metrics) RecordOutcome(phase, result string) {
	m.OutcomesTotal.WithLabelValues(phase, result).Inc()
}

// RecordLockContention counts a refused run lock.
func (m *Metrics) RecordLockContention() {
	m.LockContentions.Inc()
}

// RecordPublishError counts a failed publish.
func (m *Metrics) RecordPublishError() {
	m.PublishErrors.Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Gatherer returns the registry the metrics are registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// WriteTextfile writes all metrics in text exposition format to path,
// for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// DefaultMetrics is the process-wide metrics instance with Go runtime collectors.
var DefaultMetrics = newDefaultMetrics()

func newDefaultMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewMetrics("", reg)
}
