package accel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NaiveAccelLabel  = "naive"
	KdTreeAccelLabel = "kdtree"
)

var (
	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kdtrace_accel_build_duration_seconds",
		Help:    "Time spent building acceleration structures.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"accel"})

	builds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kdtrace_accel_builds_total",
		Help: "The number of acceleration structures built.",
	}, []string{"accel"})

	lastBuildNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kdtrace_accel_last_build_nodes",
		Help: "Node counts of the most recently built acceleration structure.",
	}, []string{"accel", "kind"})
)

// Record a completed accelerator build.
func ObserveBuild(accel string, elapsed time.Duration, internalNodes, leafNodes int) {
	buildDuration.WithLabelValues(accel).Observe(elapsed.Seconds())
	builds.WithLabelValues(accel).Inc()
	lastBuildNodes.WithLabelValues(accel, "internal").Set(float64(internalNodes))
	lastBuildNodes.WithLabelValues(accel, "leaf").Set(float64(leafNodes))
}
