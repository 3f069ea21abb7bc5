// Package metricship provides a buffered, format-agnostic writer for
// shipping measurement records to a time-series database.
//
// Records accumulate in an in-memory batch; when the configured batch
// size is reached (or on an explicit Flush or Close) the batch is
// serialized to line protocol and handed to a pluggable transport in
// one delivery attempt. Delivery failures never reach the caller:
// they are reported to an error handler and the batch is cleared so
// the metrics path can never crash or block the instrumented
// application. There is no retry; a failed batch is dropped.
//
// Example usage:
//
//	handler := metricship.NewLogErrorHandler(log.NewZerologAdapter())
//	w, err := metricship.NewLineProtocolWriter(
//	    "http://localhost:8086/write?db=metrics",
//	    handler,
//	    metricship.WithBatchSize(100),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer w.Close(context.Background())
//
//	rec, _ := metricship.NewRecord("cpu",
//	    map[string]string{"host": "web-01"},
//	    map[string]interface{}{"usage": 0.42},
//	    time.Now())
//	_ = w.Write(context.Background(), rec)
package metricship

import (
	"time"

	httptransport "github.com/tsio-labs/metricship/internal/adapters/http"
	logadapter "github.com/tsio-labs/metricship/internal/adapters/log"
	udptransport "github.com/tsio-labs/metricship/internal/adapters/udp"
	"github.com/tsio-labs/metricship/internal/domain"
	"github.com/tsio-labs/metricship/internal/lineprotocol"
	"github.com/tsio-labs/metricship/internal/ports"
	"github.com/tsio-labs/metricship/internal/writer"
	"github.com/tsio-labs/metricship/pkg/log"
)

// Core types re-exported for convenient access.
type (
	// Record is one measurement data point.
	Record = domain.Record

	// Batch is the in-memory buffer of not-yet-delivered records.
	Batch = domain.Batch

	// Writer is the batching writer.
	Writer = writer.Writer

	// Option configures optional Writer behavior.
	Option = writer.Option

	// Transport delivers a serialized payload to a remote endpoint.
	Transport = ports.Transport

	// Serializer renders a batch into its textual wire format.
	Serializer = ports.Serializer

	// ErrorHandler receives failures absorbed by the writer.
	ErrorHandler = ports.ErrorHandler

	// HTTPClient abstracts HTTP request execution.
	HTTPClient = ports.HTTPClient

	// Logger is the structured logging abstraction.
	Logger = log.Logger
)

// Sentinel errors, checkable with errors.Is.
var (
	ErrNilRecord         = domain.ErrNilRecord
	ErrNilRecords        = domain.ErrNilRecords
	ErrInvalidRecord     = domain.ErrInvalidRecord
	ErrNegativeBatchSize = domain.ErrNegativeBatchSize
	ErrWriterClosed      = domain.ErrWriterClosed
	ErrInvalidEndpoint   = domain.ErrInvalidEndpoint
)

// NewRecord creates an immutable record. See domain.NewRecord.
func NewRecord(name string, tags map[string]string, fields map[string]interface{}, ts time.Time) (*Record, error) {
	return domain.NewRecord(name, tags, fields, ts)
}

// NewWriter creates a writer from an explicit serializer and
// transport.
func NewWriter(serializer Serializer, transport Transport, opts ...Option) (*Writer, error) {
	return writer.New(serializer, transport, opts...)
}

// NewLineProtocolWriter creates a writer that serializes batches to
// line protocol with nanosecond precision and POSTs them to the
// given endpoint. The handler receives both HTTP-level rejections and
// absorbed flush failures; pass nil to discard them.
func NewLineProtocolWriter(endpoint string, handler ErrorHandler, opts ...Option) (*Writer, error) {
	if handler == nil {
		handler = logadapter.NewNoopHandler()
	}
	transport, err := httptransport.New(endpoint, nil, handler, nil)
	if err != nil {
		return nil, err
	}
	baseOpts := []Option{writer.WithErrorHandler(handler)}
	return writer.New(lineprotocol.New(time.Nanosecond), transport, append(baseOpts, opts...)...)
}

// NewLineProtocolSerializer creates a line-protocol serializer with
// the given timestamp precision.
func NewLineProtocolSerializer(precision time.Duration) Serializer {
	return lineprotocol.New(precision)
}

// NewHTTPTransport creates an HTTP transport for the given endpoint.
// Only http and https schemes are accepted.
func NewHTTPTransport(endpoint string, client HTTPClient, handler ErrorHandler, logger Logger) (*httptransport.Transport, error) {
	return httptransport.New(endpoint, client, handler, logger)
}

// NewUDPTransport creates a fire-and-forget UDP transport.
func NewUDPTransport(addr string, logger Logger) (*udptransport.Transport, error) {
	return udptransport.New(addr, logger)
}

// NewLogErrorHandler creates an error handler that reports absorbed
// failures through the given logger.
func NewLogErrorHandler(logger Logger) ErrorHandler {
	return logadapter.NewHandler(logger)
}

// WithBatchSize sets the size threshold at which a flush fires.
func WithBatchSize(n int) Option {
	return writer.WithBatchSize(n)
}

// WithErrorHandler sets the handler for absorbed flush failures.
func WithErrorHandler(h ErrorHandler) Option {
	return writer.WithErrorHandler(h)
}

// WithLogger sets the writer's logger.
func WithLogger(l Logger) Option {
	return writer.WithLogger(l)
}
