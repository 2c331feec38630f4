package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records dataset build metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	tickersBuilt    prometheus.Counter
	tickersExcluded *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	buildDuration   prometheus.Histogram
	datasetRows     prometheus.Gauge
}

// New creates a recorder with a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		tickersBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "stox_tickers_built_total",
			Help: "Tickers that produced a feature table",
		}),
		tickersExcluded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stox_tickers_excluded_total",
			Help: "Tickers excluded from a dataset build",
		}, []string{"reason"}),
		fetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stox_fetch_duration_seconds",
			Help:    "Raw series fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stox_dataset_build_duration_seconds",
			Help:    "Full dataset build duration",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		datasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stox_dataset_rows",
			Help: "Training rows in the last built dataset",
		}),
	}
}

// TickerBuilt counts one successful ticker
func (r *Recorder) TickerBuilt() {
	if r == nil {
		return
	}
	r.tickersBuilt.Inc()
}

// TickerExcluded counts one excluded ticker by reason
func (r *Recorder) TickerExcluded(reason string) {
	if r == nil {
		return
	}
	r.tickersExcluded.WithLabelValues(reason).Inc()
}

// ObserveFetch records one fetch
func (r *Recorder) ObserveFetch(source string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetchLatency.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveBuild records a completed dataset build
func (r *Recorder) ObserveBuild(d time.Duration, rows int) {
	if r == nil {
		return
	}
	r.buildDuration.Observe(d.Seconds())
	r.datasetRows.Set(float64(rows))
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
