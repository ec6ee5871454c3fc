package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func expectValue(t *testing.T, c prometheus.Collector, want float64, what string) {
	t.Helper()
	if got := testutil.ToFloat64(c); got != want {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("")

	c.RecordCommand("update", "order", "prompt", 2*time.Millisecond)
	c.RecordCommand("update", "order", "prompt", time.Millisecond)
	c.RecordFinalized("order", false)
	c.RecordPersistenceFailure("lead")
	c.RecordFeedback("tutor", true)
	c.SetActiveSessions(3)

	expectValue(t, c.commandsTotal.WithLabelValues("update", "order", "prompt"), 2, "commands")
	expectValue(t, c.recordsFinalized.WithLabelValues("order", "false"), 1, "finalized")
	expectValue(t, c.persistenceFailures.WithLabelValues("lead"), 1, "persistence failures")
	expectValue(t, c.feedbackTotal.WithLabelValues("tutor", "positive"), 1, "feedback")
	expectValue(t, c.activeSessions, 3, "active sessions")
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.RecordCommand("update", "order", "prompt", time.Millisecond)
	c.RecordFinalized("order", true)
	c.RecordPersistenceFailure("order")
	c.RecordFeedback("wellness", false)
	c.SetActiveSessions(1)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector("intake")
	b := NewCollector("intake")
	a.RecordFinalized("order", false)

	expectValue(t, b.recordsFinalized.WithLabelValues("order", "false"), 0, "second collector")
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("intake")
	c.RecordFinalized("lead", true)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `intake_records_finalized_total{forced="true",persona="lead"} 1`) {
		t.Errorf("finalized counter missing from exposition:\n%s", body)
	}
}
