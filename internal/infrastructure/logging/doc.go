// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every component receives a named child logger from the server wiring;
// request-scoped fields (request id, trace id) attach via the helpers here.
//
// Example Usage:
//
//	logger := logging.NewDefault().Named("workspace")
//	logger.Info("import finished", zap.Int("restored", n))
package logging
