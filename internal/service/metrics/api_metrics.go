package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ScoringLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pipforge",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of scoring and training endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ScoringErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipforge",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ScoringLatency, ScoringErrors)
	})
}
