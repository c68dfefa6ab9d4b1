package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal     *prometheus.CounterVec
	eventsTotal    *prometheus.CounterVec
	degradedFields *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vision_ticks_total",
				Help: "Total synthesis ticks by asset and outcome",
			},
			[]string{"asset", "outcome"},
		),
		eventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vision_events_total",
				Help: "Total detected events by type and severity",
			},
			[]string{"type", "severity"},
		),
		degradedFields: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vision_degraded_fields",
				Help: "Number of degraded fields in the latest vector per asset",
			},
			[]string{"asset"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vision_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vision_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records the outcome of one synthesis tick.
func (r *Recorder) RecordTick(assetID, outcome string) {
	r.ticksTotal.WithLabelValues(assetID, outcome).Inc()
}

// RecordEvent records a detected event.
func (r *Recorder) RecordEvent(eventType, severity string) {
	r.eventsTotal.WithLabelValues(eventType, severity).Inc()
}

// RecordDegradedFields records how many fields the latest vector degraded.
func (r *Recorder) RecordDegradedFields(assetID string, n int) {
	r.degradedFields.WithLabelValues(assetID).Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
