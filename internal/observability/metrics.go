package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// choropleth pipeline and the grid-extraction tool.
type Metrics struct {
	ObservationsLoaded   prometheus.Counter
	ObservationsFiltered prometheus.Counter
	PointsMatched        prometheus.Counter
	PointsUnmatched      prometheus.Counter
	FramesRendered       prometheus.Counter

	PipelineDuration  prometheus.Histogram
	LastRunAggregates prometheus.Gauge

	// Grid extraction metrics.
	ExtractFilesProcessed prometheus.Counter
	ExtractFilesFailed    prometheus.Counter

	// Publisher metrics.
	AggregatesPublished prometheus.Counter
	PublishErrors       prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "observations_loaded_total",
			Help:      "Total observation rows read from the source CSV.",
		}),
		ObservationsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "observations_filtered_total",
			Help:      "Total observations inside the configured date range.",
		}),
		PointsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "points_matched_total",
			Help:      "Total observation points matched to a grid cell.",
		}),
		PointsUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "points_unmatched_total",
			Help:      "Total observation points matching no grid cell.",
		}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "frames_rendered_total",
			Help:      "Total animation frames rendered.",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "temp_choropleth",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a complete load-join-aggregate-render run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastRunAggregates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "temp_choropleth",
			Name:      "last_run_aggregates",
			Help:      "Number of (cell, timestamp) aggregates produced by the last run.",
		}),
		ExtractFilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "extract_files_processed_total",
			Help:      "Total NetCDF files extracted successfully.",
		}),
		ExtractFilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "extract_files_failed_total",
			Help:      "Total NetCDF files that failed to extract.",
		}),
		AggregatesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "aggregates_published_total",
			Help:      "Total aggregates written to the Kafka topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "temp_choropleth",
			Name:      "publish_errors_total",
			Help:      "Total Kafka publish failures after retries.",
		}),
	}

	prometheus.MustRegister(
		m.ObservationsLoaded,
		m.ObservationsFiltered,
		m.PointsMatched,
		m.PointsUnmatched,
		m.FramesRendered,
		m.PipelineDuration,
		m.LastRunAggregates,
		m.ExtractFilesProcessed,
		m.ExtractFilesFailed,
		m.AggregatesPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsLoaded:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "observations_loaded_total"}),
		ObservationsFiltered:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "observations_filtered_total"}),
		PointsMatched:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "points_matched_total"}),
		PointsUnmatched:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "points_unmatched_total"}),
		FramesRendered:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "frames_rendered_total"}),
		PipelineDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "temp_choropleth", Name: "pipeline_duration_seconds"}),
		LastRunAggregates:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "temp_choropleth", Name: "last_run_aggregates"}),
		ExtractFilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "extract_files_processed_total"}),
		ExtractFilesFailed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "extract_files_failed_total"}),
		AggregatesPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "aggregates_published_total"}),
		PublishErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "temp_choropleth", Name: "publish_errors_total"}),
	}
}
