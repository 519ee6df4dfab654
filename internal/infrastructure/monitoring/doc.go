/*
Package monitoring provides Prometheus metrics for the attention service.

# Overview

Metrics are registered on a caller-supplied registry rather than the global
default, so the server and every test can own an isolated set.

# Features

- HTTP request metrics (count, latency) keyed by route template
- Allocation pass metrics (count by trigger, duration, element counts)
- Budget usage and capacity per dimension
- Capability, configuration and listener failure counters
- Coordinator intent counters
- WebSocket connection and message metrics
- Uptime

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer(metrics, "register")
	// ... run the pass ...
	timer.Stop(registered, allocated)
*/
package monitoring
