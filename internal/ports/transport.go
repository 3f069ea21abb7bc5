package ports

import "context"

// Transport delivers an opaque serialized payload to a remote
// endpoint and returns the raw response payload, if the protocol
// produces one. Fire-and-forget transports return nil bytes.
//
// Implementations must not absorb low-level delivery faults; those
// propagate as errors so the batching writer can apply its
// report-and-clear policy. Protocol-level rejections (for example an
// HTTP error status) may be handled inside the transport, provided
// the failure is reported exactly once.
type Transport interface {
	// Send attempts one delivery of payload. The connection is scoped
	// to this call; nothing is held open between deliveries.
	Send(ctx context.Context, payload []byte) ([]byte, error)
}
