package playback

import "github.com/prometheus/client_golang/prometheus"

var (
	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vantage_playback_decisions_total",
			Help: "Playback decisions by winning tier",
		},
		[]string{"source"},
	)
	decideDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vantage_playback_decide_seconds",
			Help:    "Time spent loading inputs and resolving a decision",
			Buckets: prometheus.DefBuckets,
		},
	)
	pushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vantage_playback_pushes_total",
			Help: "Content update pushes by result",
		},
		[]string{"result"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(decisions, decideDuration, pushes)
}
