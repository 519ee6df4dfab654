package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/inspect"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/monitoring"
)

// MetricsAggregator serves metrics in Prometheus and JSON form
type MetricsAggregator struct {
	metrics  *monitoring.Metrics
	gatherer prometheus.Gatherer
	store    *attention.Store
}

// NewMetricsAggregator creates a metrics aggregator
func NewMetricsAggregator(metrics *monitoring.Metrics, gatherer prometheus.Gatherer, store *attention.Store) *MetricsAggregator {
	return &MetricsAggregator{
		metrics:  metrics,
		gatherer: gatherer,
		store:    store,
	}
}

// MetricsSnapshot is the JSON metrics document
type MetricsSnapshot struct {
	Timestamp time.Time                  `json:"timestamp"`
	Service   monitoring.MetricsSnapshot `json:"service"`
	Store     attention.Stats            `json:"store"`
	Budget    inspect.Summary            `json:"budget"`
	Summary   MetricsSummary             `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	ErrorRate         float64 `json:"error_rate"`
	AveragePassMs     float64 `json:"average_pass_ms"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Prometheus serves the exposition format for the service's registry
func (ma *MetricsAggregator) Prometheus() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(ma.gatherer, promhttp.HandlerOpts{}))
}

// GetAggregatedMetrics returns the JSON metrics document
func (ma *MetricsAggregator) GetAggregatedMetrics(c *gin.Context) {
	service := ma.metrics.Snapshot()
	ctx, decisions := ma.store.View()

	c.JSON(http.StatusOK, MetricsSnapshot{
		Timestamp: time.Now().UTC(),
		Service:   service,
		Store:     ma.store.Stats(),
		Budget:    inspect.Summarize(ctx, decisions),
		Summary:   summarize(service),
	})
}

func summarize(s monitoring.MetricsSnapshot) MetricsSummary {
	var errorRate float64
	if s.TotalRequests > 0 {
		errorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
	}

	return MetricsSummary{
		TotalRequests:     s.TotalRequests,
		ErrorRate:         errorRate,
		AveragePassMs:     s.AvgPassSeconds() * 1000,
		ActiveConnections: s.ActiveConnections,
		UptimeSeconds:     s.UptimeSeconds,
	}
}

// Register mounts the metrics endpoints on r
func (ma *MetricsAggregator) Register(r gin.IRouter) {
	r.GET("/metrics", ma.Prometheus())
	r.GET("/metrics/json", ma.GetAggregatedMetrics)
}
