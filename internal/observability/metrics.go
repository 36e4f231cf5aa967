package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fire_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// feature pipelines and the prediction service.
type Metrics struct {
	// Pipeline stage metrics.
	StageDuration  *prometheus.HistogramVec // labels: pipeline={training,prediction}, stage
	RowsProcessed  *prometheus.CounterVec   // labels: pipeline
	AssemblyErrors *prometheus.CounterVec   // labels: pipeline, stage

	// Prediction serving metrics.
	PredictionRequests *prometheus.CounterVec // labels: outcome={success,bad_request,not_found,input_error,upstream_error,schema_error,error}
	PredictionCache    *prometheus.CounterVec // labels: result={hit,miss}
	ModelLoaded        prometheus.Gauge

	// INPE archive metrics.
	ArchiveRequests *prometheus.CounterVec // labels: outcome={success,error,cached,not_found}
	ArchiveDuration prometheus.Histogram

	// Scheduler and publishing.
	SchedulerRuns       *prometheus.CounterVec // labels: outcome={success,error}
	PredictionsProduced prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StageDuration,
		m.RowsProcessed,
		m.AssemblyErrors,
		m.PredictionRequests,
		m.PredictionCache,
		m.ModelLoaded,
		m.ArchiveRequests,
		m.ArchiveDuration,
		m.SchedulerRuns,
		m.PredictionsProduced,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of one feature pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"pipeline", "stage"}),
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Hotspot rows emitted by a completed pipeline run.",
		}, []string{"pipeline"}),
		AssemblyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assembly_errors_total",
			Help:      "Pipeline runs aborted by a failing stage.",
		}, []string{"pipeline", "stage"}),
		PredictionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_requests_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_cache_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when a model artifact is loaded, 0 otherwise.",
		}),
		ArchiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_requests_total",
			Help:      "Daily file fetches from the INPE archive by outcome.",
		}, []string{"outcome"}),
		ArchiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_request_duration_seconds",
			Help:      "INPE archive fetch duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SchedulerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Scheduled daily prediction runs by outcome.",
		}, []string{"outcome"}),
		PredictionsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_produced_total",
			Help:      "Prediction records published to Kafka.",
		}),
	}
}
