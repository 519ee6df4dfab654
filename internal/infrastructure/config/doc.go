// Package config provides 12-factor configuration for the attention service.
//
// Configuration is loaded from environment variables with defaults. CLI
// flags on attentiond override a few of them.
//
// Configuration Sections:
//   - Server: listen address and allowed CORS origins
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//   - Budget: default attention pool capacities
//   - Stream: devtools poll interval and intent queue size
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - ATTENTION_MAX_SCREEN, ATTENTION_MAX_AUDIO, ATTENTION_MAX_COGNITIVE
//   - INSPECT_POLL_INTERVAL, INTENT_QUEUE_SIZE
package config
