package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ Collector = (*PrometheusCollector)(nil)
var _ Collector = NoOpCollector{}

func TestPrometheusCollector_Counters(t *testing.T) {
	pc, err := NewPrometheusCollector("ledger")
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	pc.RecordTransactionWritten("create")
	pc.RecordTransactionWritten("create")
	pc.RecordEventPublished("created", false)
	pc.RecordCacheLookup("summary", true)
	pc.RecordCacheLookup("summary", false)
	pc.RecordCacheLookup("summary", false)
	pc.RecordCircuitState("amqp", CircuitOpen)

	if got := testutil.ToFloat64(pc.transactionsWritten.WithLabelValues("create")); got != 2 {
		t.Fatalf("transactions_written = %v", got)
	}
	if got := testutil.ToFloat64(pc.eventsPublished.WithLabelValues("created", "error")); got != 1 {
		t.Fatalf("events_published error = %v", got)
	}
	if got := testutil.ToFloat64(pc.cacheMisses.WithLabelValues("summary")); got != 2 {
		t.Fatalf("cache misses = %v", got)
	}
	if got := testutil.ToFloat64(pc.circuitState.WithLabelValues("amqp")); got != float64(CircuitOpen) {
		t.Fatalf("circuit state = %v", got)
	}
	if got := testutil.ToFloat64(pc.circuitOpens.WithLabelValues("amqp")); got != 1 {
		t.Fatalf("circuit opens = %v", got)
	}
}

func TestPrometheusCollector_Handler(t *testing.T) {
	pc, err := NewPrometheusCollector("ledger")
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	pc.RecordHTTPRequest(http.MethodGet, "/entries", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	pc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(string(body), `ledger_http_requests_total{method="GET",route="/entries",status="200"} 1`) {
		t.Fatalf("request counter missing from exposition:\n%s", body)
	}
}

func TestCircuitStateString(t *testing.T) {
	if CircuitHalfOpen.String() != "half-open" || CircuitState(9).String() != "unknown" {
		t.Fatal("unexpected state names")
	}
}
