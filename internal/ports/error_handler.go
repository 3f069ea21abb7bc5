package ports

// ErrorHandler receives serialization and delivery failures absorbed
// by the writer, together with a bounded diagnostic context string.
//
// Implementations must never fail. The writer guarantees at most one
// Handle call per failed flush.
type ErrorHandler interface {
	Handle(err error, context string)
}
