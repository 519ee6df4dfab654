package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Use the route template so /elements/:id does not explode label cardinality
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures an allocation pass
type Timer struct {
	start   time.Time
	metrics *Metrics
	trigger string
}

// NewTimer starts timing a pass for trigger
func NewTimer(metrics *Metrics, trigger string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		trigger: trigger,
	}
}

// Stop records the pass. A nil metrics collector makes this a no-op.
func (t *Timer) Stop(registered, allocated int) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordPass(t.trigger, time.Since(t.start), registered, allocated)
}
