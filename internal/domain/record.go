package domain

import (
	"fmt"
	"sort"
	"time"

	protocol "github.com/influxdata/line-protocol"
)

// Record is a single measurement data point destined for the
// time-series database. A record is immutable once constructed: tags
// and fields are copied and sorted by key at construction time, so a
// record serializes identically no matter how often or where it is
// encoded.
//
// Record implements the line-protocol Metric interface, which lets
// the encoder consume it directly.
type Record struct {
	name   string
	tags   []*protocol.Tag
	fields []*protocol.Field
	ts     time.Time
}

// NewRecord creates an immutable record from the given measurement
// name, tags, fields, and timestamp. The name must be non-empty and
// at least one field is required; line protocol cannot express a
// point without fields. A nil tags map is allowed.
func NewRecord(name string, tags map[string]string, fields map[string]interface{}, ts time.Time) (*Record, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty measurement name", ErrInvalidRecord)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: measurement %q has no fields", ErrInvalidRecord, name)
	}

	r := &Record{
		name:   name,
		tags:   make([]*protocol.Tag, 0, len(tags)),
		fields: make([]*protocol.Field, 0, len(fields)),
		ts:     ts,
	}

	for k, v := range tags {
		r.tags = append(r.tags, &protocol.Tag{Key: k, Value: v})
	}
	sort.Slice(r.tags, func(i, j int) bool { return r.tags[i].Key < r.tags[j].Key })

	for k, v := range fields {
		r.fields = append(r.fields, &protocol.Field{Key: k, Value: v})
	}
	sort.Slice(r.fields, func(i, j int) bool { return r.fields[i].Key < r.fields[j].Key })

	return r, nil
}

// Name returns the measurement name.
func (r *Record) Name() string {
	return r.name
}

// Time returns the record timestamp.
func (r *Record) Time() time.Time {
	return r.ts
}

// TagList returns the tags sorted by key. The returned slice is owned
// by the record and must not be modified.
func (r *Record) TagList() []*protocol.Tag {
	return r.tags
}

// FieldList returns the fields sorted by key. The returned slice is
// owned by the record and must not be modified.
func (r *Record) FieldList() []*protocol.Field {
	return r.fields
}
