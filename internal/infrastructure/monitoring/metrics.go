package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Allocation metrics
	AllocationPasses   *prometheus.CounterVec
	AllocationDuration prometheus.Histogram
	ElementsRegistered prometheus.Gauge
	ElementsAllocated  prometheus.Gauge
	ElementsDeferred   prometheus.Gauge
	BudgetUsed         *prometheus.GaugeVec
	BudgetCapacity     *prometheus.GaugeVec

	// Failure metrics
	CapabilityFailures  *prometheus.CounterVec
	ConfigurationErrors prometheus.Counter
	ListenerFailures    prometheus.Counter

	// Intent metrics
	Intents *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	TotalErrors        int64   `json:"total_errors"`
	TotalPasses        int64   `json:"total_passes"`
	CapabilityFailures int64   `json:"capability_failures"`
	ListenerFailures   int64   `json:"listener_failures"`
	ActiveConnections  int64   `json:"active_connections"`
	LastPassSeconds    float64 `json:"last_pass_seconds"`
	TotalPassSeconds   float64 `json:"total_pass_seconds"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

// AvgPassSeconds returns the mean allocation pass duration
func (s MetricsSnapshot) AvgPassSeconds() float64 {
	if s.TotalPasses == 0 {
		return 0
	}
	return s.TotalPassSeconds / float64(s.TotalPasses)
}

// NewMetrics creates a metrics collector registered on reg. Pass a fresh
// prometheus.NewRegistry() per process (or per test) so collectors never
// collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attention_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attention_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		// Allocation metrics
		AllocationPasses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attention_allocation_passes_total",
				Help: "Total number of allocation passes by trigger",
			},
			[]string{"trigger"},
		),
		AllocationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "attention_allocation_duration_seconds",
				Help:    "Allocation pass duration in seconds, including listener notification",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		ElementsRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "attention_elements_registered",
				Help: "Number of registered elements",
			},
		),
		ElementsAllocated: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "attention_elements_allocated",
				Help: "Number of elements allocated by the last pass",
			},
		),
		ElementsDeferred: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "attention_elements_deferred",
				Help: "Number of elements deferred by the last pass",
			},
		),
		BudgetUsed: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "attention_budget_used",
				Help: "Budget consumed by the last pass",
			},
			[]string{"dimension"},
		),
		BudgetCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "attention_budget_capacity",
				Help: "Budget capacity in effect for the last pass",
			},
			[]string{"dimension"},
		),

		// Failure metrics
		CapabilityFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attention_capability_failures_total",
				Help: "Total number of element score/needs failures",
			},
			[]string{"op"},
		),
		ConfigurationErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attention_configuration_errors_total",
				Help: "Total number of invalid inputs replaced by defaults",
			},
		),
		ListenerFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attention_listener_failures_total",
				Help: "Total number of recovered listener panics",
			},
		),

		// Intent metrics
		Intents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attention_intents_total",
				Help: "Total number of intents applied by the coordinator",
			},
			[]string{"kind", "status"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "attention_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attention_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "attention_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordPass records a completed allocation pass
func (m *Metrics) RecordPass(trigger string, duration time.Duration, registered, allocated int) {
	m.AllocationPasses.WithLabelValues(trigger).Inc()
	m.AllocationDuration.Observe(duration.Seconds())
	m.ElementsRegistered.Set(float64(registered))
	m.ElementsAllocated.Set(float64(allocated))
	m.ElementsDeferred.Set(float64(registered - allocated))

	m.mu.Lock()
	m.snapshot.TotalPasses++
	m.snapshot.LastPassSeconds = duration.Seconds()
	m.snapshot.TotalPassSeconds += duration.Seconds()
	m.mu.Unlock()
}

// SetBudget records usage and capacity for one dimension
func (m *Metrics) SetBudget(dimension string, used, capacity float64) {
	m.BudgetUsed.WithLabelValues(dimension).Set(used)
	m.BudgetCapacity.WithLabelValues(dimension).Set(capacity)
}

// RecordCapabilityFailure records an element failure during a pass
func (m *Metrics) RecordCapabilityFailure(op string) {
	m.CapabilityFailures.WithLabelValues(op).Inc()
	m.mu.Lock()
	m.snapshot.CapabilityFailures++
	m.mu.Unlock()
}

// RecordConfigurationErrors records invalid inputs that were replaced
func (m *Metrics) RecordConfigurationErrors(count int) {
	m.ConfigurationErrors.Add(float64(count))
}

// RecordListenerFailure records a recovered listener panic
func (m *Metrics) RecordListenerFailure() {
	m.ListenerFailures.Inc()
	m.mu.Lock()
	m.snapshot.ListenerFailures++
	m.mu.Unlock()
}

// RecordIntent records an intent applied by the coordinator
func (m *Metrics) RecordIntent(kind, status string) {
	m.Intents.WithLabelValues(kind, status).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
