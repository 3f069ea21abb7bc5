package agent

import (
	"os"
	"runtime"
	"time"

	"github.com/tsio-labs/metricship/internal/domain"
)

// Collector produces records from some metric source. Implementations
// must not retain the returned slice.
type Collector interface {
	Collect(now time.Time) ([]*domain.Record, error)
}

// RuntimeCollector samples Go runtime memory and scheduler statistics
// from the running process.
type RuntimeCollector struct {
	hostname string
	start    time.Time
}

// NewRuntimeCollector creates a collector tagged with the local
// hostname.
func NewRuntimeCollector() *RuntimeCollector {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &RuntimeCollector{hostname: host, start: time.Now()}
}

// Collect samples the runtime and returns one memory record and one
// scheduler record, both stamped with now.
func (c *RuntimeCollector) Collect(now time.Time) ([]*domain.Record, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	tags := map[string]string{"host": c.hostname}

	mem, err := domain.NewRecord("go_memstats", tags, map[string]interface{}{
		"alloc_bytes":       int64(ms.Alloc),
		"sys_bytes":         int64(ms.Sys),
		"heap_objects":      int64(ms.HeapObjects),
		"total_alloc_bytes": int64(ms.TotalAlloc),
		"gc_runs":           int64(ms.NumGC),
	}, now)
	if err != nil {
		return nil, err
	}

	sched, err := domain.NewRecord("go_sched", tags, map[string]interface{}{
		"goroutines":     int64(runtime.NumGoroutine()),
		"uptime_seconds": now.Sub(c.start).Seconds(),
	}, now)
	if err != nil {
		return nil, err
	}

	return []*domain.Record{mem, sched}, nil
}
