// Package main is the attentiond command.
//
// attentiond hosts an attention store behind an intent coordinator and
// exposes it over HTTP and WebSocket for inspection. It can also replay
// scenario files offline.
//
// Usage:
//
//	# Serve the inspection API (env: PORT, LOG_LEVEL, ATTENTION_MAX_*, ...)
//	attentiond serve --port 8000
//
//	# Development mode (colored logs, debug level)
//	attentiond serve --dev
//
//	# Replay scenarios and check their expectations
//	attentiond simulate 'scenarios/**/*.yaml'
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
