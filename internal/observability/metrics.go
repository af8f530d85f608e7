// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	TrialsSimulated  *prometheus.CounterVec
	BatchesCompleted *prometheus.CounterVec
	BatchDuration    prometheus.Histogram
	NumericAnomalies prometheus.Counter

	// Run metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	SummariesComputed prometheus.Counter
	ReportsGenerated  prometheus.Counter

	// Decision metrics
	TopRiskAdjustedScore prometheus.Gauge
	Recommendations      *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "entrylab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		TrialsSimulated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trials_total",
			Help:      "Total number of household trials simulated by scenario",
		}, []string{"scenario"}),
		BatchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "batches_total",
			Help:      "Total number of (scenario, strategy) batches by status",
		}, []string{"status"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one (scenario, strategy) batch",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		NumericAnomalies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "numeric_anomalies_total",
			Help:      "Total number of batches aborted on non-finite values",
		}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total number of engine runs by phase and status",
		}, []string{"phase", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Engine phase duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		SummariesComputed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "summaries_computed_total",
			Help:      "Total number of scenario summaries computed",
		}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		TopRiskAdjustedScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "top_risk_adjusted_score",
			Help:      "Risk-adjusted score of the top-ranked strategy in the last run",
		}),
		Recommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "recommendations_total",
			Help:      "Total number of gate outcomes by decision",
		}, []string{"decision"}),

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

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a /metrics handler serving only the given gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordBatch records one completed or failed simulation batch.
func (m *Metrics) RecordBatch(scenario string, trials int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.BatchesCompleted.WithLabelValues("error").Inc()
		return
	}
	m.BatchesCompleted.WithLabelValues("ok").Inc()
	m.TrialsSimulated.WithLabelValues(scenario).Add(float64(trials))
}

// RecordAnomaly counts a batch aborted on a numeric anomaly.
func (m *Metrics) RecordAnomaly() {
	if m == nil {
		return
	}
	m.NumericAnomalies.Inc()
}

// RecordPhase records one run phase.
func (m *Metrics) RecordPhase(phase, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(phase, status).Inc()
	m.RunDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

// RecordSummaries counts computed scenario summaries.
func (m *Metrics) RecordSummaries(n int) {
	if m == nil {
		return
	}
	m.SummariesComputed.Add(float64(n))
}

// RecordDecision records the gate outcome of a successful run.
func (m *Metrics) RecordDecision(decision string, topScore float64, at time.Time) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues(decision).Inc()
	m.TopRiskAdjustedScore.Set(topScore)
	m.LastSuccessfulRun.Set(float64(at.Unix()))
}

// RecordReport counts a generated report.
func (m *Metrics) RecordReport() {
	if m == nil {
		return
	}
	m.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
