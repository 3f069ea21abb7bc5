// Package writer implements the batching writer that buffers records
// and ships them in serialized batches over a pluggable transport.
package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsio-labs/metricship/internal/domain"
	"github.com/tsio-labs/metricship/internal/ports"
	"github.com/tsio-labs/metricship/pkg/log"
)

// previewLines bounds how much of a failed payload is included in the
// diagnostic context handed to the error handler.
const previewLines = 5

// Writer buffers records in a batch and delivers the serialized
// batch through a transport. With a batch size above zero, a flush
// fires synchronously as soon as the buffered count reaches the
// threshold; with a batch size of zero the batch grows until Flush
// or Close is called.
//
// Serialization and delivery failures never propagate to the caller:
// they are reported once to the configured error handler and the
// batch is cleared regardless of the outcome, so a failed flush can
// neither block subsequent writes nor grow the buffer without bound.
// The records of a failed flush are dropped, not requeued.
//
// A Writer is not safe for concurrent use. One goroutine drives one
// Writer; concurrent producers need external synchronization.
type Writer struct {
	batch      *domain.Batch
	batchSize  int
	serializer ports.Serializer
	transport  ports.Transport
	errors     ports.ErrorHandler
	logger     log.Logger
	closed     bool
}

// New creates a writer with the given serializer and transport.
// Defaults: batch size 0 (flush only on demand), no-op error handler,
// no-op logger.
func New(serializer ports.Serializer, transport ports.Transport, opts ...Option) (*Writer, error) {
	if serializer == nil {
		return nil, fmt.Errorf("metricship: nil serializer")
	}
	if transport == nil {
		return nil, fmt.Errorf("metricship: nil transport")
	}

	w := &Writer{
		batch:      domain.NewBatch(),
		serializer: serializer,
		transport:  transport,
		errors:     noopHandler{},
		logger:     log.NewNoopLogger(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Write appends one record to the batch. A nil record is rejected
// with ErrNilRecord before any buffer mutation. When the size
// threshold is reached the batch is flushed before Write returns.
func (w *Writer) Write(ctx context.Context, record *domain.Record) error {
	if w.closed {
		return domain.ErrWriterClosed
	}
	if record == nil {
		return domain.ErrNilRecord
	}

	w.batch.Append(record)
	if w.batchSize > 0 && w.batch.Size() >= w.batchSize {
		w.Flush(ctx)
	}
	return nil
}

// WriteAll appends the records in order, applying Write semantics per
// element; a long slice may trigger several flushes mid-iteration. A
// nil slice is rejected with ErrNilRecords.
func (w *Writer) WriteAll(ctx context.Context, records []*domain.Record) error {
	if w.closed {
		return domain.ErrWriterClosed
	}
	if records == nil {
		return domain.ErrNilRecords
	}

	for i, record := range records {
		if err := w.Write(ctx, record); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// Flush serializes the entire current batch and hands it to the
// transport in one delivery attempt. An empty batch is a no-op: no
// serialization, no transport call. On any failure the error handler
// receives one report with the record count, payload size, and the
// first few payload lines; the batch is cleared on every exit path.
func (w *Writer) Flush(ctx context.Context) {
	if w.batch.Empty() {
		return
	}

	records := w.batch.Size()
	defer w.batch.Clear()

	text, err := w.serializer.Serialize(w.batch)
	if err != nil {
		w.errors.Handle(err, fmt.Sprintf("serializing batch of %s", recordCount(records)))
		return
	}

	payload := []byte(text)
	if _, err := w.transport.Send(ctx, payload); err != nil {
		w.errors.Handle(err, deliveryContext(records, payload))
		return
	}

	w.logger.Debug("batch delivered",
		log.Int("records", records),
		log.Int("bytes", len(payload)))
}

// Close flushes any buffered records and marks the writer closed.
// The batch ends up empty even if the flush panics. Close is
// idempotent; Write calls after Close return ErrWriterClosed.
func (w *Writer) Close(ctx context.Context) {
	if w.closed {
		return
	}
	w.closed = true

	defer w.batch.Clear()
	w.Flush(ctx)
}

// Len returns the number of buffered records.
func (w *Writer) Len() int {
	return w.batch.Size()
}

// Buffered returns a copy of the buffered records in insertion order.
func (w *Writer) Buffered() []*domain.Record {
	return w.batch.Records()
}

// BatchSize returns the current size threshold.
func (w *Writer) BatchSize() int {
	return w.batchSize
}

// SetBatchSize changes the size threshold. Zero disables
// size-triggered flushing; negative values are rejected with
// ErrNegativeBatchSize. A threshold below the current buffer length
// takes effect on the next Write.
func (w *Writer) SetBatchSize(n int) error {
	if n < 0 {
		return domain.ErrNegativeBatchSize
	}
	w.batchSize = n
	return nil
}

// deliveryContext builds the bounded diagnostic string reported with
// a failed delivery.
func deliveryContext(records int, payload []byte) string {
	return fmt.Sprintf("delivering %s (%s), payload begins:\n%s",
		recordCount(records), humanBytes(len(payload)), preview(payload))
}

// recordCount formats a count with the right noun form.
func recordCount(n int) string {
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}

// humanBytes formats a payload size as bytes or KiB.
func humanBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KiB", float64(n)/1024)
}

// preview returns at most previewLines lines of the payload.
func preview(payload []byte) string {
	text := strings.TrimRight(string(payload), "\n")
	lines := strings.SplitN(text, "\n", previewLines+1)
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], "...")
	}
	return strings.Join(lines, "\n")
}

// noopHandler discards absorbed failures.
type noopHandler struct{}

func (noopHandler) Handle(err error, context string) {}
