// Package log provides the logging abstraction used across
// metricship.
//
// The Logger interface can be satisfied by any structured logging
// library. A zerolog-backed adapter is provided for normal operation
// and a no-op logger for tests and embedders that manage their own
// logging.
package log
