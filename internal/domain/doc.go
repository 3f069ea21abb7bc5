// Package domain contains the core entities of the metric shipping
// pipeline: measurement records, the in-memory batch buffer, and the
// sentinel errors surfaced by the public API.
//
// The types here carry no I/O. Serialization and delivery live behind
// the interfaces in internal/ports.
package domain
