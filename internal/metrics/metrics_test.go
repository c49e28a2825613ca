package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCounterAdd(t *testing.T) {
	c := GetRegistry().NewCounter("test_counter_total", "测试计数器", []string{"kind"})
	c.Inc("a")
	c.Inc("a")
	c.Add(3, "b")

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.values["a"] != 2 {
		t.Errorf("Expected counter a=2, got %f", c.values["a"])
	}
	if c.values["b"] != 3 {
		t.Errorf("Expected counter b=3, got %f", c.values["b"])
	}
}

func TestGaugeSetIncDec(t *testing.T) {
	g := GetRegistry().NewGauge("test_gauge", "测试仪表盘", nil)
	g.Set(5)
	g.Inc()
	g.Inc()
	g.Dec()

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.values[""] != 6 {
		t.Errorf("Expected gauge 6, got %f", g.values[""])
	}
}

func TestHistogramObserve(t *testing.T) {
	h := GetRegistry().NewHistogram("test_histogram", "测试直方图", nil, []float64{1, 5, 10})
	h.Observe(0.5)
	h.Observe(3)
	h.Observe(100)

	h.mu.RLock()
	defer h.mu.RUnlock()
	counts := h.counts[""]
	if counts[0] != 1 {
		t.Errorf("Bucket le=1 should have 1 observation, got %d", counts[0])
	}
	if counts[1] != 2 {
		t.Errorf("Bucket le=5 should have 2 observations, got %d", counts[1])
	}
	if counts[3] != 3 {
		t.Errorf("+Inf bucket should have 3 observations, got %d", counts[3])
	}
	if h.sums[""] != 103.5 {
		t.Errorf("Expected sum 103.5, got %f", h.sums[""])
	}
}

func TestHandlerOutput(t *testing.T) {
	RecordRequest("POST", "/api/v1/roster/solve", 200, 50*time.Millisecond)
	RecordSolveAttempt("optimal", 2*time.Second)
	SetBestScore(42)
	SetUnfilledSlots(3)
	SolveStarted()
	SolveFinished()
	SetDBConnections(10, 2, 8)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE lunban_http_requests_total counter",
		`lunban_http_requests_total{method="POST",path="/api/v1/roster/solve",status="200"}`,
		"# TYPE lunban_solve_attempts_total counter",
		`lunban_solve_attempts_total{status="optimal"}`,
		"# TYPE lunban_best_score gauge",
		"lunban_best_score 42",
		"lunban_unfilled_slots 3",
		`lunban_db_connections{state="open"} 10`,
		"# TYPE lunban_solve_duration_seconds histogram",
		"lunban_solve_duration_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Metrics output missing %q", want)
		}
	}
}

func TestActiveSolvesBalance(t *testing.T) {
	g := GetRegistry().GetGauge("lunban_active_solves")
	if g == nil {
		t.Fatal("active solves gauge not registered")
	}

	g.mu.RLock()
	before := g.values[""]
	g.mu.RUnlock()

	SolveStarted()
	SolveStarted()
	SolveFinished()

	g.mu.RLock()
	after := g.values[""]
	g.mu.RUnlock()
	if after != before+1 {
		t.Errorf("Expected active solves %f, got %f", before+1, after)
	}
}

func TestFormatLabels(t *testing.T) {
	got := formatLabels([]string{"method", "path"}, "GET,/health")
	if got != `method="GET",path="/health"` {
		t.Errorf("Unexpected label format: %s", got)
	}
	// 值少于标签名时补空串
	got = formatLabels([]string{"a", "b"}, "x")
	if got != `a="x",b=""` {
		t.Errorf("Unexpected padded format: %s", got)
	}
}
