// Package metrics counts the operations, failures and loaded items of a CLI
// run and renders them as a report.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Metrics is safe for concurrent use. Counters are updated atomically; the
// per-service breakdown is guarded by mu.
type Metrics struct {
	mu sync.Mutex

	operations   int64
	errors       int64
	itemsWritten int64
	corruptLines int64

	services  map[string]int64
	startTime time.Time
}

// NewMetrics creates a Metrics whose clock starts now.
func NewMetrics() *Metrics {
	return &Metrics{
		services:  make(map[string]int64),
		startTime: time.Now(),
	}
}

// RecordOperation counts one successful call against service.
func (m *Metrics) RecordOperation(service string) {
	atomic.AddInt64(&m.operations, 1)
	m.mu.Lock()
	m.services[service]++
	m.mu.Unlock()
}

// RecordError counts one failed call against service.
func (m *Metrics) RecordError(service string) {
	atomic.AddInt64(&m.errors, 1)
	m.mu.Lock()
	m.services[service]++
	m.mu.Unlock()
}

// RecordItems adds n to the written items counter.
func (m *Metrics) RecordItems(n int) {
	atomic.AddInt64(&m.itemsWritten, int64(n))
}

// RecordCorrupt counts one skipped input line.
func (m *Metrics) RecordCorrupt() {
	atomic.AddInt64(&m.corruptLines, 1)
}

// Report is a snapshot of Metrics.
type Report struct {
	StartTime    time.Time        `json:"startTime"`
	EndTime      time.Time        `json:"endTime"`
	Operations   int64            `json:"operations"`
	Errors       int64            `json:"errors"`
	ItemsWritten int64            `json:"itemsWritten"`
	CorruptLines int64            `json:"corruptLines"`
	Services     map[string]int64 `json:"services"`
	Duration     time.Duration    `json:"duration"`
	Throughput   float64          `json:"throughput"` // items per second
}

// GenerateReport takes a snapshot ending now.
func (m *Metrics) GenerateReport() Report {
	endTime := time.Now()
	duration := endTime.Sub(m.startTime)
	items := atomic.LoadInt64(&m.itemsWritten)

	var throughput float64
	if duration > 0 {
		throughput = float64(items) / duration.Seconds()
	}

	m.mu.Lock()
	services := make(map[string]int64, len(m.services))
	for k, v := range m.services {
		services[k] = v
	}
	m.mu.Unlock()

	return Report{
		StartTime:    m.startTime,
		EndTime:      endTime,
		Operations:   atomic.LoadInt64(&m.operations),
		Errors:       atomic.LoadInt64(&m.errors),
		ItemsWritten: items,
		CorruptLines: atomic.LoadInt64(&m.corruptLines),
		Services:     services,
		Duration:     duration,
		Throughput:   throughput,
	}
}

// MarshalJSON renders Duration as a string.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(&struct {
		Alias
		Duration string `json:"duration"`
	}{
		Alias:    Alias(r),
		Duration: r.Duration.String(),
	})
}

// String formats the report for log output.
func (r Report) String() string {
	names := make([]string, 0, len(r.Services))
	for name := range r.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	calls := make([]string, 0, len(names))
	for _, name := range names {
		calls = append(calls, fmt.Sprintf("%s=%d", name, r.Services[name]))
	}

	return fmt.Sprintf(
		"Completed in %s\n"+
			"Operations: %d\n"+
			"Errors: %d\n"+
			"Items written: %d\n"+
			"Corrupt lines: %d\n"+
			"Calls: %s",
		r.Duration,
		r.Operations,
		r.Errors,
		r.ItemsWritten,
		r.CorruptLines,
		strings.Join(calls, " "),
	)
}
