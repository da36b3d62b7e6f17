// Package metrics keeps prometheus collectors for the feed pipeline and the http server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors, separate from the default one
	Registry = prometheus.NewRegistry()

	pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skyfeed",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by outcome.",
		},
		[]string{"status"},
	)

	pipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skyfeed",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"status"},
	)

	itemsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skyfeed",
			Subsystem: "pipeline",
			Name:      "items_dropped_total",
			Help:      "Feed items excluded by the filter or failed normalization.",
		},
		[]string{"reason"},
	)

	postsPublished = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skyfeed",
			Subsystem: "pipeline",
			Name:      "posts_published",
			Help:      "Number of posts in the latest feed document.",
		},
	)

	feedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skyfeed",
			Subsystem: "http",
			Name:      "feed_requests_total",
			Help:      "Feed document requests by source of the answer.",
		},
		[]string{"source"},
	)
)

func init() {
	Registry.MustRegister(pipelineRuns, pipelineDuration, itemsDropped, postsPublished, feedRequests)
}

// Handler exposes the registry in prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObservePipelineRun records a finished pipeline run
func ObservePipelineRun(status string, dur time.Duration) {
	pipelineRuns.WithLabelValues(status).Inc()
	pipelineDuration.WithLabelValues(status).Observe(dur.Seconds())
}

// AddDropped adds n dropped items for the reason
func AddDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	itemsDropped.WithLabelValues(reason).Add(float64(n))
}

// SetPostsPublished sets the size of the latest document
func SetPostsPublished(n int) {
	postsPublished.Set(float64(n))
}

// IncFeedRequest counts a feed request answered from source (snapshot, live, error, limited)
func IncFeedRequest(source string) {
	feedRequests.WithLabelValues(source).Inc()
}
