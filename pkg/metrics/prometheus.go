package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	price      *prometheus.GaugeVec
	index      *prometheus.GaugeVec
	ticks      *prometheus.CounterVec
	commands   *prometheus.CounterVec
	broadcasts *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// New registers the market collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		price: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketsim_price",
				Help: "Current simulated price per instrument",
			},
			[]string{"symbol"},
		),
		index: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketsim_index_value",
				Help: "Last reported composite index value",
			},
			[]string{"index"},
		),
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsim_ticks_total",
				Help: "Committed price changes by source",
			},
			[]string{"source"},
		),
		commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsim_commands_total",
				Help: "Chat commands handled by name",
			},
			[]string{"command"},
		),
		broadcasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsim_broadcasts_total",
				Help: "Scheduled report deliveries by result",
			},
			[]string{"result"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsim_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketsim_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPrice(symbol string, price float64) {
	r.price.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordIndex(name string, value float64) {
	r.index.WithLabelValues(name).Set(value)
}

func (r *Recorder) RecordTick(source string) {
	r.ticks.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordCommand(name string) {
	r.commands.WithLabelValues(name).Inc()
}

func (r *Recorder) RecordBroadcast(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.broadcasts.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
