// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON lines for log shippers
//   - Development: colored console output
//
// Domain packages take a plain *zap.Logger; the wrapper only exists at the
// process edge where it is built from configuration.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Close()
//	store := attention.NewStore(logger.Component("store"), capacity)
package logging
