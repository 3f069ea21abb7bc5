package log

// NoopHandler implements ports.ErrorHandler by discarding failures.
type NoopHandler struct{}

// NewNoopHandler creates a new no-op handler.
func NewNoopHandler() *NoopHandler {
	return &NoopHandler{}
}

// Handle discards the failure.
func (NoopHandler) Handle(err error, context string) {}
