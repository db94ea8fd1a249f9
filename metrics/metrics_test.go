package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestMetricsHappyPath(t *testing.T) {
	m := NewMetrics()

	m.RecordOperation("dynamodb")
	m.RecordOperation("dynamodb")
	m.RecordOperation("s3")
	m.RecordError("sqs")
	m.RecordItems(30)
	m.RecordCorrupt()

	time.Sleep(50 * time.Millisecond)

	report := m.GenerateReport()

	if report.Operations != 3 {
		t.Errorf("expected 3 operations, got %d", report.Operations)
	}
	if report.Errors != 1 {
		t.Errorf("expected 1 error, got %d", report.Errors)
	}
	if report.ItemsWritten != 30 {
		t.Errorf("expected 30 items, got %d", report.ItemsWritten)
	}
	if report.CorruptLines != 1 {
		t.Errorf("expected 1 corrupt line, got %d", report.CorruptLines)
	}
	if report.Services["dynamodb"] != 2 || report.Services["sqs"] != 1 {
		t.Errorf("unexpected service counts: %v", report.Services)
	}
	if report.Duration < 50*time.Millisecond {
		t.Errorf("expected duration >= 50ms, got %v", report.Duration)
	}
	if report.Throughput <= 0 {
		t.Errorf("expected positive throughput, got %f", report.Throughput)
	}

	str := report.String()
	if !strings.Contains(str, "Calls: dynamodb=2 s3=1 sqs=1") {
		t.Errorf("unexpected string representation: %s", str)
	}
}

func TestReportJSON(t *testing.T) {
	m := NewMetrics()
	m.RecordOperation("s3")

	data, err := json.Marshal(m.GenerateReport())
	if err != nil {
		t.Fatalf("failed to marshal report: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal report: %v", err)
	}
	if _, ok := decoded["duration"].(string); !ok {
		t.Errorf("expected duration as string, got %T", decoded["duration"])
	}
	if decoded["operations"] != float64(1) {
		t.Errorf("expected 1 operation, got %v", decoded["operations"])
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordOperation("dynamodb")
				m.RecordItems(1)
			}
		}()
	}
	wg.Wait()

	report := m.GenerateReport()
	if report.Operations != 800 || report.ItemsWritten != 800 || report.Services["dynamodb"] != 800 {
		t.Errorf("unexpected counts: %+v", report)
	}
}
