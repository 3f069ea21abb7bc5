package writer

import (
	"github.com/tsio-labs/metricship/internal/domain"
	"github.com/tsio-labs/metricship/internal/ports"
	"github.com/tsio-labs/metricship/pkg/log"
)

// Option configures optional behavior of a Writer.
type Option func(*Writer) error

// WithBatchSize sets the size threshold at which a flush fires.
// Zero disables size-triggered flushing; negative values are
// rejected with ErrNegativeBatchSize.
func WithBatchSize(n int) Option {
	return func(w *Writer) error {
		if n < 0 {
			return domain.ErrNegativeBatchSize
		}
		w.batchSize = n
		return nil
	}
}

// WithErrorHandler sets the handler that receives absorbed
// serialization and delivery failures. If not provided, failures are
// discarded.
func WithErrorHandler(h ports.ErrorHandler) Option {
	return func(w *Writer) error {
		if h != nil {
			w.errors = h
		}
		return nil
	}
}

// WithLogger sets the logger for successful-delivery diagnostics.
// If not provided, a no-op logger is used.
func WithLogger(l log.Logger) Option {
	return func(w *Writer) error {
		if l != nil {
			w.logger = l
		}
		return nil
	}
}
