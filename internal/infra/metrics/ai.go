package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(generationSeconds, generationFailuresTotal) }

var generationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "worker_generation_seconds",
		Help:    "Latency of text generation calls, labeled by provider.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	},
	[]string{"provider"},
)

var generationFailuresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_generation_failures_total",
		Help: "Failed text generation calls, labeled by provider.",
	},
	[]string{"provider"},
)

func ObserveGeneration(provider string, seconds float64) {
	generationSeconds.WithLabelValues(provider).Observe(seconds)
}

func IncGenerationFailure(provider string) {
	generationFailuresTotal.WithLabelValues(provider).Inc()
}
