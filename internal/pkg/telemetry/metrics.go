package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Oracle health
	MetricOracleErrorRate = "oracle.error_rate"
	MetricOracleQueueWait = "oracle.queue_wait_seconds"
	MetricCacheHitRatio   = "oracle.cache_hit_ratio"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricOptimizations   = "business.optimizations_served"
	MetricFallbackResults = "business.fallback_results"
)
