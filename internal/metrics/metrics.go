package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the generator's Prometheus collectors. Each instance owns
// its registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RowsGenerated     *prometheus.CounterVec
	PartitionDuration *prometheus.HistogramVec
	RunsTotal         *prometheus.CounterVec
	RunsActive        prometheus.Gauge
	SinkBatches       *prometheus.CounterVec
	SinkErrors        *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RowsGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sbgen_generator_rows_total",
				Help: "Total number of rows generated",
			},
			[]string{"table"},
		),

		PartitionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sbgen_generator_partition_duration_seconds",
				Help:    "Time spent generating one partition",
				Buckets: prometheus.ExponentialBuckets(0.005, 4, 10),
			},
			[]string{"table"},
		),

		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sbgen_runs_total",
				Help: "Total number of runs by final status",
			},
			[]string{"status"},
		),

		RunsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sbgen_runs_active",
				Help: "Runs currently executing",
			},
		),

		SinkBatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sbgen_sink_batches_total",
				Help: "Total number of batches written to a sink",
			},
			[]string{"sink"},
		),

		SinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sbgen_sink_errors_total",
				Help: "Total number of failed sink writes",
			},
			[]string{"sink"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
