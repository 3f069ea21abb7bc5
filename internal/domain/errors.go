package domain

import "errors"

// Sentinel errors returned by the public API. All of them are
// argument or precondition violations raised at the call site that
// caused them; delivery failures are never surfaced through errors
// but routed to the configured error handler instead.
var (
	// ErrNilRecord is returned when Write is called with a nil record.
	ErrNilRecord = errors.New("metricship: nil record")

	// ErrNilRecords is returned when WriteAll is called with a nil slice.
	ErrNilRecords = errors.New("metricship: nil record slice")

	// ErrInvalidRecord is returned when a record cannot be constructed.
	ErrInvalidRecord = errors.New("metricship: invalid record")

	// ErrNegativeBatchSize is returned when a batch size below zero is
	// requested. Zero is valid and means "flush only on demand".
	ErrNegativeBatchSize = errors.New("metricship: negative batch size")

	// ErrWriterClosed is returned when Write is called after Close.
	ErrWriterClosed = errors.New("metricship: writer closed")

	// ErrInvalidEndpoint is returned when a transport is constructed
	// with a missing or malformed destination endpoint.
	ErrInvalidEndpoint = errors.New("metricship: invalid endpoint")
)
