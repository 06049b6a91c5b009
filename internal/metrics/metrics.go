// Package metrics holds the Prometheus collectors shared by the importer and
// the HTTP server. Collectors register with the default registry on first use.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type collectors struct {
	importRuns    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	entries       *prometheus.CounterVec
	conflicts     prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	useCases      *prometheus.HistogramVec
}

var get = sync.OnceValue(func() *collectors {
	return &collectors{
		importRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifelog",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Import pipeline runs by terminal outcome.",
		}, []string{"outcome"}),
		stageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lifelog",
			Subsystem: "import",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each import pipeline stage.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.05,
				0.1, 0.5, 1, 5, 10, 30,
			},
		}, []string{"stage", "result"}),
		entries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifelog",
			Subsystem: "import",
			Name:      "entries_total",
			Help:      "Imported habit entries by result.",
		}, []string{"result"}),
		conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "lifelog",
			Subsystem: "import",
			Name:      "conflicts_total",
			Help:      "Naming conflicts detected against existing habits.",
		}),
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifelog",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lifelog",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
})

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	get().stageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
}

// ImportRun counts a finished run: "complete", "failed" or "conflicts".
func ImportRun(outcome string) {
	get().importRuns.WithLabelValues(outcome).Inc()
}

// Entries adds n entries under result ("imported", "skipped" or "failed").
func Entries(result string, n int) {
	if n <= 0 {
		return
	}
	get().entries.WithLabelValues(result).Add(float64(n))
}

func Conflicts(n int) {
	if n <= 0 {
		return
	}
	get().conflicts.Add(float64(n))
}

// HTTPRequest records one served request.
func HTTPRequest(route, code string, d time.Duration) {
	c := get()
	c.httpRequests.WithLabelValues(route, code).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// UseCase records one finished service call.
func UseCase(name string, d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	get().useCases.WithLabelValues(name, result).Observe(d.Seconds())
}
