package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tsio-labs/metricship/internal/domain"
)

// fakeSerializer renders one line per record ("<name>\n") and counts
// invocations.
type fakeSerializer struct {
	calls int
	fail  bool
}

func (s *fakeSerializer) Serialize(batch *domain.Batch) (string, error) {
	s.calls++
	if s.fail {
		return "", errors.New("boom")
	}
	var b strings.Builder
	for _, r := range batch.Records() {
		b.WriteString(r.Name())
		b.WriteString("\n")
	}
	return b.String(), nil
}

// fakeTransport records every payload it receives.
type fakeTransport struct {
	calls    int
	payloads []string
	fail     bool
	resp     []byte
}

func (t *fakeTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	t.calls++
	t.payloads = append(t.payloads, string(payload))
	if t.fail {
		return nil, errors.New("connection refused")
	}
	return t.resp, nil
}

// lines returns the record count of payload i.
func (t *fakeTransport) lines(i int) int {
	return strings.Count(t.payloads[i], "\n")
}

type captureHandler struct {
	calls   int
	lastErr error
	lastCtx string
}

func (h *captureHandler) Handle(err error, context string) {
	h.calls++
	h.lastErr = err
	h.lastCtx = context
}

func record(t *testing.T, name string) *domain.Record {
	t.Helper()
	r, err := domain.NewRecord(name, nil, map[string]interface{}{"v": 1.0}, time.Unix(1, 0))
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	return r
}

func newTestWriter(t *testing.T, opts ...Option) (*Writer, *fakeSerializer, *fakeTransport, *captureHandler) {
	t.Helper()
	ser := &fakeSerializer{}
	tr := &fakeTransport{}
	h := &captureHandler{}
	w, err := New(ser, tr, append([]Option{WithErrorHandler(h)}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return w, ser, tr, h
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, &fakeTransport{}); err == nil {
		t.Errorf("New with nil serializer should fail")
	}
	if _, err := New(&fakeSerializer{}, nil); err == nil {
		t.Errorf("New with nil transport should fail")
	}
	if _, err := New(&fakeSerializer{}, &fakeTransport{}, WithBatchSize(-1)); !errors.Is(err, domain.ErrNegativeBatchSize) {
		t.Errorf("New with negative batch size: error = %v, want ErrNegativeBatchSize", err)
	}
}

func TestWrite_NilRecord(t *testing.T) {
	w, _, tr, _ := newTestWriter(t)

	if err := w.Write(context.Background(), nil); !errors.Is(err, domain.ErrNilRecord) {
		t.Errorf("error = %v, want ErrNilRecord", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (no buffer mutation on invalid argument)", w.Len())
	}
	if tr.calls != 0 {
		t.Errorf("transport called %d times, want 0", tr.calls)
	}
}

func TestWriteAll_NilSlice(t *testing.T) {
	w, _, _, _ := newTestWriter(t)

	if err := w.WriteAll(context.Background(), nil); !errors.Is(err, domain.ErrNilRecords) {
		t.Errorf("error = %v, want ErrNilRecords", err)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0", w.Len())
	}
}

func TestWrite_UnboundedBuffering(t *testing.T) {
	w, ser, tr, _ := newTestWriter(t) // batch size 0

	for i := 0; i < 25; i++ {
		if err := w.Write(context.Background(), record(t, fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if w.Len() != i+1 {
			t.Fatalf("Len() = %d after %d writes, want %d", w.Len(), i+1, i+1)
		}
	}
	if ser.calls != 0 || tr.calls != 0 {
		t.Errorf("serializer/transport called (%d/%d) without an explicit flush", ser.calls, tr.calls)
	}

	w.Flush(context.Background())
	if tr.calls != 1 || tr.lines(0) != 25 {
		t.Errorf("flush delivered %d payloads (%d records), want 1 payload of 25", tr.calls, tr.lines(0))
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after flush, want 0", w.Len())
	}
}

func TestWrite_SizeTriggeredFlush(t *testing.T) {
	w, _, tr, _ := newTestWriter(t, WithBatchSize(2))
	ctx := context.Background()

	if err := w.Write(ctx, record(t, "A")); err != nil {
		t.Fatalf("Write(A) failed: %v", err)
	}
	if w.Len() != 1 || tr.calls != 0 {
		t.Fatalf("after Write(A): Len=%d calls=%d, want 1/0", w.Len(), tr.calls)
	}

	if err := w.Write(ctx, record(t, "B")); err != nil {
		t.Fatalf("Write(B) failed: %v", err)
	}
	if tr.calls != 1 || tr.lines(0) != 2 {
		t.Fatalf("after Write(B): calls=%d records=%d, want 1 call with 2 records", tr.calls, tr.lines(0))
	}
	if w.Len() != 0 {
		t.Fatalf("Len() = %d after triggered flush, want 0", w.Len())
	}

	if err := w.Write(ctx, record(t, "C")); err != nil {
		t.Fatalf("Write(C) failed: %v", err)
	}
	if w.Len() != 1 {
		t.Fatalf("Len() = %d after Write(C), want 1", w.Len())
	}

	w.Close(ctx)
	if tr.calls != 2 || tr.lines(1) != 1 {
		t.Errorf("after Close: calls=%d records=%d, want 2 calls, last with 1 record", tr.calls, tr.lines(1))
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", w.Len())
	}
}

func TestWriteAll_FlushesMidIteration(t *testing.T) {
	w, _, tr, _ := newTestWriter(t, WithBatchSize(2))

	records := make([]*domain.Record, 5)
	for i := range records {
		records[i] = record(t, fmt.Sprintf("m%d", i))
	}
	if err := w.WriteAll(context.Background(), records); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	if tr.calls != 2 {
		t.Errorf("transport calls = %d, want 2 (flush fired twice mid-iteration)", tr.calls)
	}
	if w.Len() != 1 {
		t.Errorf("Len() = %d, want 1 remaining", w.Len())
	}
}

func TestWrite_CountConservation(t *testing.T) {
	const k, m = 3, 10
	w, _, tr, _ := newTestWriter(t, WithBatchSize(k))

	for i := 0; i < m; i++ {
		if err := w.Write(context.Background(), record(t, fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if w.Len() >= k {
			t.Fatalf("Len() = %d after write %d, must stay below %d", w.Len(), i, k)
		}
	}

	delivered := 0
	for i := range tr.payloads {
		delivered += tr.lines(i)
	}
	if delivered+w.Len() != m {
		t.Errorf("delivered %d + buffered %d != written %d", delivered, w.Len(), m)
	}
}

func TestFlush_EmptyBatchIsNoop(t *testing.T) {
	w, ser, tr, h := newTestWriter(t)

	w.Flush(context.Background())
	w.Flush(context.Background())

	if ser.calls != 0 {
		t.Errorf("serializer calls = %d, want 0", ser.calls)
	}
	if tr.calls != 0 {
		t.Errorf("transport calls = %d, want 0", tr.calls)
	}
	if h.calls != 0 {
		t.Errorf("handler calls = %d, want 0", h.calls)
	}
}

func TestFlush_ClearsOnTransportFailure(t *testing.T) {
	w, _, tr, h := newTestWriter(t)
	tr.fail = true

	if err := w.Write(context.Background(), record(t, "A")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w.Flush(context.Background())

	if w.Len() != 0 {
		t.Errorf("Len() = %d after failed flush, want 0", w.Len())
	}
	if h.calls != 1 {
		t.Fatalf("handler calls = %d, want exactly 1", h.calls)
	}
	if !strings.Contains(h.lastCtx, "delivering 1 record (") {
		t.Errorf("context %q does not mention the record count", h.lastCtx)
	}
	if !strings.Contains(h.lastCtx, "A") {
		t.Errorf("context %q does not include the payload preview", h.lastCtx)
	}

	// A failed flush must not block subsequent writes.
	tr.fail = false
	if err := w.Write(context.Background(), record(t, "B")); err != nil {
		t.Fatalf("Write after failed flush: %v", err)
	}
	w.Flush(context.Background())
	if tr.calls != 2 || tr.lines(1) != 1 {
		t.Errorf("recovery flush: calls=%d records=%d, want 2 calls, last with 1 record", tr.calls, tr.lines(1))
	}
}

func TestFlush_ClearsOnSerializeFailure(t *testing.T) {
	w, ser, tr, h := newTestWriter(t)
	ser.fail = true

	if err := w.Write(context.Background(), record(t, "A")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w.Flush(context.Background())

	if w.Len() != 0 {
		t.Errorf("Len() = %d after failed serialize, want 0", w.Len())
	}
	if tr.calls != 0 {
		t.Errorf("transport calls = %d, want 0 (nothing to deliver)", tr.calls)
	}
	if h.calls != 1 {
		t.Errorf("handler calls = %d, want 1", h.calls)
	}
	if !strings.Contains(h.lastCtx, "batch of 1 record") {
		t.Errorf("context %q does not mention the record count", h.lastCtx)
	}
}

func TestFlush_PreviewIsBounded(t *testing.T) {
	w, _, tr, h := newTestWriter(t)
	tr.fail = true

	for i := 0; i < 20; i++ {
		if err := w.Write(context.Background(), record(t, fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	w.Flush(context.Background())

	if h.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", h.calls)
	}
	if !strings.Contains(h.lastCtx, "delivering 20 records (") {
		t.Errorf("context %q does not mention the record count", h.lastCtx)
	}
	preview := h.lastCtx[strings.Index(h.lastCtx, "\n")+1:]
	lines := strings.Split(preview, "\n")
	if len(lines) > previewLines+1 {
		t.Errorf("preview has %d lines, want at most %d plus ellipsis", len(lines), previewLines)
	}
	if !strings.Contains(h.lastCtx, "...") {
		t.Errorf("context %q should mark the truncated payload", h.lastCtx)
	}
}

func TestClose_FlushesAndRejectsWrites(t *testing.T) {
	w, _, tr, _ := newTestWriter(t)
	ctx := context.Background()

	if err := w.Write(ctx, record(t, "A")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w.Close(ctx)

	if tr.calls != 1 {
		t.Errorf("transport calls = %d, want exactly 1 final flush", tr.calls)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", w.Len())
	}

	if err := w.Write(ctx, record(t, "B")); !errors.Is(err, domain.ErrWriterClosed) {
		t.Errorf("Write after Close: error = %v, want ErrWriterClosed", err)
	}
	if err := w.WriteAll(ctx, []*domain.Record{record(t, "B")}); !errors.Is(err, domain.ErrWriterClosed) {
		t.Errorf("WriteAll after Close: error = %v, want ErrWriterClosed", err)
	}

	// Idempotent: a second Close must not flush again.
	w.Close(ctx)
	if tr.calls != 1 {
		t.Errorf("transport calls = %d after double Close, want 1", tr.calls)
	}
}

func TestClose_ClearsEvenOnFailedFlush(t *testing.T) {
	w, _, tr, h := newTestWriter(t)
	tr.fail = true

	if err := w.Write(context.Background(), record(t, "A")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w.Close(context.Background())

	if tr.calls != 1 {
		t.Errorf("transport calls = %d, want exactly 1 attempt", tr.calls)
	}
	if h.calls != 1 {
		t.Errorf("handler calls = %d, want 1", h.calls)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0", w.Len())
	}
}

func TestSetBatchSize(t *testing.T) {
	w, _, tr, _ := newTestWriter(t)

	if err := w.SetBatchSize(-1); !errors.Is(err, domain.ErrNegativeBatchSize) {
		t.Errorf("SetBatchSize(-1): error = %v, want ErrNegativeBatchSize", err)
	}
	if w.BatchSize() != 0 {
		t.Errorf("BatchSize() = %d after rejected set, want 0", w.BatchSize())
	}

	if err := w.SetBatchSize(2); err != nil {
		t.Fatalf("SetBatchSize(2) failed: %v", err)
	}
	if err := w.Write(context.Background(), record(t, "A")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Write(context.Background(), record(t, "B")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("transport calls = %d, want 1 (new threshold applies)", tr.calls)
	}
}

func TestBuffered_ReturnsView(t *testing.T) {
	w, _, _, _ := newTestWriter(t)

	if err := w.Write(context.Background(), record(t, "A")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	view := w.Buffered()
	if len(view) != 1 || view[0].Name() != "A" {
		t.Fatalf("Buffered() = %v, want [A]", view)
	}
	view[0] = nil
	if w.Buffered()[0] == nil {
		t.Errorf("Buffered() must return a copy")
	}
}
