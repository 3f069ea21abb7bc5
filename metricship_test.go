package metricship_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tsio-labs/metricship"
)

func TestNewLineProtocolWriter_RejectsBadScheme(t *testing.T) {
	w, err := metricship.NewLineProtocolWriter("tcp://localhost:9009", nil)
	if !errors.Is(err, metricship.ErrInvalidEndpoint) {
		t.Fatalf("error = %v, want ErrInvalidEndpoint", err)
	}
	if w != nil {
		t.Fatalf("writer = %v, want nil when construction fails", w)
	}
}

func TestLineProtocolWriter_EndToEnd(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	received := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}

	w, err := metricship.NewLineProtocolWriter(ts.URL, nil, metricship.WithBatchSize(2))
	if err != nil {
		t.Fatalf("NewLineProtocolWriter failed: %v", err)
	}

	ctx := context.Background()
	write := func(name string) {
		t.Helper()
		rec, err := metricship.NewRecord(name,
			map[string]string{"host": "test"},
			map[string]interface{}{"v": 1.0},
			time.Unix(1, 0))
		if err != nil {
			t.Fatalf("NewRecord failed: %v", err)
		}
		if err := w.Write(ctx, rec); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	write("aaa")
	if got := received(); len(got) != 0 {
		t.Fatalf("server received %d payloads before the threshold, want 0", len(got))
	}

	write("bbb")
	got := received()
	if len(got) != 1 {
		t.Fatalf("server received %d payloads, want 1 after the threshold", len(got))
	}
	if !strings.Contains(got[0], "aaa") || !strings.Contains(got[0], "bbb") {
		t.Errorf("payload %q should contain both records", got[0])
	}

	write("ccc")
	w.Close(ctx)
	got = received()
	if len(got) != 2 {
		t.Fatalf("server received %d payloads, want 2 after Close", len(got))
	}
	if !strings.Contains(got[1], "ccc") {
		t.Errorf("final payload %q should contain the remaining record", got[1])
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", w.Len())
	}
}

func TestLineProtocolWriter_AbsorbsDeliveryFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := ts.URL
	ts.Close() // connection errors from now on

	handler := &countingHandler{}
	w, err := metricship.NewLineProtocolWriter(endpoint, handler)
	if err != nil {
		t.Fatalf("NewLineProtocolWriter failed: %v", err)
	}

	rec, err := metricship.NewRecord("cpu", nil, map[string]interface{}{"v": 1.0}, time.Unix(1, 0))
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	if err := w.Write(context.Background(), rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	w.Flush(context.Background())

	if handler.calls != 1 {
		t.Errorf("handler calls = %d, want exactly 1", handler.calls)
	}
	if !strings.Contains(handler.lastCtx, "1 record (") {
		t.Errorf("context %q does not mention the record count", handler.lastCtx)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after failed flush, want 0", w.Len())
	}
}

type countingHandler struct {
	calls   int
	lastCtx string
}

func (h *countingHandler) Handle(err error, context string) {
	h.calls++
	h.lastCtx = context
}
