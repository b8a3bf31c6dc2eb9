package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a pipeline run.
type Metrics struct {
	RecordsFetched  prometheus.Counter
	RecordsSkipped  *prometheus.CounterVec // labels: reason={no_region,unknown_region}
	RegionsLoaded   prometheus.Gauge
	RegionsDropped  *prometheus.CounterVec // labels: reason={outside_state,unclassified}
	DatesDropped    prometheus.Counter
	FramesRendered  prometheus.Counter
	AggregatesSent  prometheus.Counter
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge
	MaxDailyCount   prometheus.Gauge

	FetchDuration  prometheus.Histogram
	RenderDuration prometheus.Histogram
	StageDuration  *prometheus.HistogramVec // labels: stage={fetch,regions,vaccinations,aggregate,render,assemble,publish}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsFetched,
		m.RecordsSkipped,
		m.RegionsLoaded,
		m.RegionsDropped,
		m.DatesDropped,
		m.FramesRendered,
		m.AggregatesSent,
		m.PipelineRunning,
		m.LastSuccess,
		m.MaxDailyCount,
		m.FetchDuration,
		m.RenderDuration,
		m.StageDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidmap",
			Name:      "case_records_fetched_total",
			Help:      "Case records returned by the NSW datastore query.",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covidmap",
			Name:      "case_records_skipped_total",
			Help:      "Case records that could not be mapped, by reason.",
		}, []string{"reason"}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidmap",
			Name:      "regions_loaded",
			Help:      "Classified LGA boundaries available for mapping.",
		}),
		RegionsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covidmap",
			Name:      "regions_dropped_total",
			Help:      "Boundaries dropped while loading, by reason.",
		}, []string{"reason"}),
		DatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidmap",
			Name:      "dates_without_vaccination_total",
			Help:      "Case dates excluded because no vaccination snapshot exists.",
		}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidmap",
			Name:      "frames_rendered_total",
			Help:      "Frame images written.",
		}),
		AggregatesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covidmap",
			Name:      "aggregates_published_total",
			Help:      "Daily aggregate rows published to Kafka.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidmap",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidmap",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
		MaxDailyCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covidmap",
			Name:      "max_daily_region_count",
			Help:      "Colour-scale ceiling: the largest single (date, LGA) count.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covidmap",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the case data API request.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covidmap",
			Name:      "frame_render_duration_seconds",
			Help:      "Duration of rendering and writing one frame.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "covidmap",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
	}
}
