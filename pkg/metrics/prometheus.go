package metrics

import (
	"TradePulse/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal     *prometheus.CounterVec
	rejectionsTotal  *prometheus.CounterVec
	confidenceScores prometheus.Histogram
	evaluationsTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signals_total",
				Help: "Signals persisted, by symbol and lifecycle status",
			},
			[]string{"symbol", "status"},
		),
		rejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_rejections_total",
				Help: "Pipeline rejections by reason",
			},
			[]string{"reason"},
		),
		confidenceScores: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradepulse_confidence_score",
				Help:    "Confirmation gate confidence distribution",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		evaluationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_evaluations_total",
				Help: "Evaluated signals by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records a persisted signal.
func (r *Recorder) RecordSignal(symbol string, status models.SignalStatus) {
	r.signalsTotal.WithLabelValues(symbol, string(status)).Inc()
}

// RecordRejection records a pipeline rejection.
func (r *Recorder) RecordRejection(reason models.RejectReason) {
	r.rejectionsTotal.WithLabelValues(string(reason)).Inc()
}

// RecordConfidence records a gate confidence score.
func (r *Recorder) RecordConfidence(v float64) {
	r.confidenceScores.Observe(v)
}

// RecordEvaluation records an evaluated outcome.
func (r *Recorder) RecordEvaluation(outcome models.Outcome) {
	r.evaluationsTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
