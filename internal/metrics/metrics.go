package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dreambid",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreambid",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dreambid",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreambid",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Total number of background job runs.",
		},
		[]string{"job", "success"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dreambid",
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Duration of background job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"job"},
	)

	reconciledRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dreambid",
			Subsystem: "auction",
			Name:      "status_transitions_total",
			Help:      "Total number of auction status transitions applied.",
		},
	)

	purgedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreambid",
			Subsystem: "retention",
			Name:      "purged_rows_total",
			Help:      "Total number of rows removed by retention cleanup.",
		},
		[]string{"table"},
	)

	activityWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dreambid",
			Subsystem: "activity",
			Name:      "writes_total",
			Help:      "Total number of asynchronous activity log writes.",
		},
		[]string{"success"},
	)

	activityBacklog = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dreambid",
			Subsystem: "activity",
			Name:      "queue_backlog",
			Help:      "Activity entries buffered and not yet written.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		jobRuns,
		jobDuration,
		reconciledRows,
		purgedRows,
		activityWrites,
		activityBacklog,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordJobRun records one run of a background job.
func RecordJobRun(job string, duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// AddReconciledRows counts auction status transitions.
func AddReconciledRows(n int64) {
	reconciledRows.Add(float64(n))
}

// AddPurgedRows counts rows deleted from table by retention cleanup.
func AddPurgedRows(table string, n int64) {
	purgedRows.WithLabelValues(table).Add(float64(n))
}

// RecordActivityWrite counts an asynchronous activity insert.
func RecordActivityWrite(success bool) {
	activityWrites.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// SetActivityBacklog reports the number of queued activity entries.
func SetActivityBacklog(n int) {
	activityBacklog.Set(float64(n))
}
