package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "midwhereah",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "midwhereah",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Optimizer metrics
	Optimizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "optimizer",
		Name:      "runs_total",
		Help:      "Total optimization runs by outcome",
	}, []string{"outcome"}) // ok | fallback | input_error

	OptimizationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "midwhereah",
		Subsystem: "optimizer",
		Name:      "run_duration_seconds",
		Help:      "End-to-end duration of one optimization run",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	CandidatesEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "midwhereah",
		Subsystem: "optimizer",
		Name:      "candidates_evaluated",
		Help:      "Candidates scored in the coarse phase per run",
		Buckets:   []float64{10, 25, 50, 100, 200, 400},
	})

	VenueLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "optimizer",
		Name:      "venue_lookups_total",
		Help:      "Venue discovery calls in the fine phase",
	}, []string{"outcome"}) // found | empty | error

	// Travel time oracle metrics
	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "oracle",
		Name:      "requests_total",
		Help:      "Travel time oracle lookups by mode and status",
	}, []string{"mode", "status"}) // ok | no_route | error | timeout

	OracleFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "oracle",
		Name:      "local_estimates_total",
		Help:      "Per-participant travel times served by the local haversine estimate",
	})

	OracleQueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "midwhereah",
		Subsystem: "oracle",
		Name:      "queue_wait_seconds",
		Help:      "Time a lookup spent queued behind the rate limiter",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// Travel time cache metrics
	TravelTimeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Travel time cache hits",
	})

	TravelTimeCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Travel time cache misses",
	})

	TravelTimeCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "midwhereah",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Expired travel time entries removed by the sweeper",
	})

	// WebSocket relay
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "midwhereah",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
