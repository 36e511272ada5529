package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsScored *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	trainingRuns  *prometheus.CounterVec
	winRate       *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsScored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipforge_signals_scored_total",
				Help: "Total number of signals scored",
			},
			[]string{"symbol", "recommendation"},
		),
		outcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipforge_outcomes_total",
				Help: "Total number of labeled trade outcomes",
			},
			[]string{"symbol", "result"},
		),
		trainingRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipforge_training_runs_total",
				Help: "Total number of weight optimization runs",
			},
			[]string{"algorithm"},
		),
		winRate: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipforge_win_rate",
				Help: "Last computed win rate per weight context",
			},
			[]string{"context"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipforge_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalScored records one scored signal.
func (r *Recorder) RecordSignalScored(symbol, recommendation string) {
	r.signalsScored.WithLabelValues(symbol, recommendation).Inc()
}

// RecordOutcome records one labeled outcome.
func (r *Recorder) RecordOutcome(symbol string, win bool) {
	result := "loss"
	if win {
		result = "win"
	}
	r.outcomes.WithLabelValues(symbol, result).Inc()
}

// RecordTrainingRun records one optimization run.
func (r *Recorder) RecordTrainingRun(algorithm string) {
	r.trainingRuns.WithLabelValues(algorithm).Inc()
}

// RecordWinRate records the latest win rate for a weight context.
func (r *Recorder) RecordWinRate(context string, winRate float64) {
	r.winRate.WithLabelValues(context).Set(winRate)
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
