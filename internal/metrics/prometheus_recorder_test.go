package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("bringup", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncStageResult("bringup", ResultSuccess)
	pr.IncRunOutcome("success")
	pr.IncBringup(true)
	pr.ObserveStepDuration(time.Second, false)
	pr.IncExampleOutcome("pass")
	pr.IncReviewRetry("openai")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 8 {
		t.Fatalf("expected 8 metric families, got %d", len(mfs))
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncRunOutcome("failed")
	pr.IncBringup(false)
	OrNoop(nil).IncExampleOutcome("timeout")
}

func TestExport(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncRunOutcome("success")

	path := filepath.Join(t.TempDir(), "normalize.prom")
	if err := WriteTextfile(reg, path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `normalize_run_outcomes_total{outcome="success"} 1`) {
		t.Errorf("unexpected textfile content:\n%s", data)
	}
	if err := WriteTextfile(reg, ""); err != nil {
		t.Errorf("empty path must be a no-op: %v", err)
	}

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "normalize_run_outcomes_total") {
		t.Errorf("handler did not expose metrics")
	}
}
