// Package ports defines the interfaces that connect the batching
// writer to the outside world.
//
// The writer in internal/writer depends only on these interfaces.
// Concrete implementations live in internal/adapters (HTTP and UDP
// transports, log-backed error handling) and internal/lineprotocol
// (serialization). This keeps the failure policy in one place: the
// writer decides what happens when delivery fails, the adapters only
// decide how bytes move.
//
// # Port Interfaces
//
//   - [Transport]: delivers a serialized payload to a remote endpoint
//   - [Serializer]: renders a batch into its textual wire format
//   - [ErrorHandler]: receives failures absorbed by the writer
//   - [HTTPClient]: HTTP request abstraction for dependency injection
package ports
