// Package log provides error-handler adapters backed by the logging
// abstraction.
package log

import (
	"github.com/tsio-labs/metricship/pkg/log"
)

// Handler implements ports.ErrorHandler by reporting absorbed flush
// failures through a Logger at error level. This is the process-wide
// error-reporting sink for a pipeline that must never crash the
// instrumented application.
type Handler struct {
	logger log.Logger
}

// NewHandler creates a handler writing to the given logger.
func NewHandler(logger log.Logger) *Handler {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Handler{logger: logger}
}

// Handle reports one failed flush. It never fails.
func (h *Handler) Handle(err error, context string) {
	h.logger.Error("flush failed",
		log.Err(err),
		log.String("context", context))
}
