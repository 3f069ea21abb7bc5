package domain

// Batch is the in-memory buffer of not-yet-delivered records. It
// preserves insertion order and is owned by exactly one writer; it is
// not safe for concurrent use.
type Batch struct {
	records []*Record
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{records: make([]*Record, 0)}
}

// Append adds a record to the end of the batch. The batch takes
// ownership of the record.
func (b *Batch) Append(r *Record) {
	b.records = append(b.records, r)
}

// Records returns a copy of the buffered records in insertion order.
func (b *Batch) Records() []*Record {
	out := make([]*Record, len(b.records))
	copy(out, b.records)
	return out
}

// Size returns the number of buffered records.
func (b *Batch) Size() int {
	return len(b.records)
}

// Empty returns true if the batch holds no records.
func (b *Batch) Empty() bool {
	return len(b.records) == 0
}

// Clear removes all records. The batch is immediately reusable.
func (b *Batch) Clear() {
	b.records = b.records[:0]
}
