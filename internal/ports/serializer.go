package ports

import "github.com/tsio-labs/metricship/internal/domain"

// Serializer renders a batch into its textual wire format.
//
// Implementations must be pure: no side effects, and deterministic
// output for a given batch content and ordering.
type Serializer interface {
	Serialize(batch *domain.Batch) (string, error)
}
