package tracing

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/attention/internal/shared/id"
)

// HTTPMiddleware traces every request. Incoming trace headers are honored
// when they are valid IDs; the trace and span IDs are echoed back.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(TraceHeader); incoming != "" && id.Validate(incoming) == nil {
			ctx = WithTraceID(ctx, TraceID(incoming))
		}
		if parent := c.GetHeader(SpanHeader); parent != "" && id.Validate(parent) == nil {
			ctx = context.WithValue(ctx, spanIDKey, SpanID(parent))
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, string(span.TraceID))
		c.Header(SpanHeader, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}
