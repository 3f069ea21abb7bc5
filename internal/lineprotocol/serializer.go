// Package lineprotocol renders batches of records as InfluxDB line
// protocol text.
package lineprotocol

import (
	"bytes"
	"fmt"
	"time"

	protocol "github.com/influxdata/line-protocol"

	"github.com/tsio-labs/metricship/internal/domain"
)

// Serializer implements ports.Serializer using the line-protocol
// encoder. Output is deterministic for a given batch: records are
// encoded in insertion order and carry pre-sorted tag and field
// lists, and the encoder additionally sorts fields.
type Serializer struct {
	precision time.Duration
}

// New creates a serializer with the given timestamp precision
// (time.Nanosecond, time.Microsecond, time.Millisecond, or
// time.Second). A non-positive precision falls back to nanoseconds.
func New(precision time.Duration) *Serializer {
	if precision <= 0 {
		precision = time.Nanosecond
	}
	return &Serializer{precision: precision}
}

// Serialize renders the batch as newline-delimited line protocol.
func (s *Serializer) Serialize(batch *domain.Batch) (string, error) {
	var buf bytes.Buffer
	enc := protocol.NewEncoder(&buf)
	enc.SetPrecision(s.precision)
	enc.SetFieldSortOrder(protocol.SortFields)

	for _, r := range batch.Records() {
		if _, err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("encode %q: %w", r.Name(), err)
		}
	}
	return buf.String(), nil
}
