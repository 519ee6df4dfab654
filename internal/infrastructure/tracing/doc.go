/*
Package tracing provides lightweight request tracing.

Every HTTP request gets a trace ID (taken from X-Trace-ID when the caller
supplies a valid one) and a span that is logged when the request finishes.
Handlers attach the trace ID to their own log lines with Field, so a failed
intent can be matched to the request that emitted it.

# Usage

	tracer := tracing.New("attentiond", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	func handler(c *gin.Context) {
		logger.Warn("intent rejected", tracing.Field(c.Request.Context()))
	}

Spans are buffered and logged by a single collector goroutine. When the
buffer is full new spans are dropped with a warning rather than blocking
the request.
*/
package tracing
