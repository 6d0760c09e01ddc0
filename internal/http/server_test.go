package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func newTestServer(t *testing.T, cfg Config, l Ledger) *Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Config{Output: io.Discard, Component: log.ComponentHTTP})
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}
	srv := NewServer(cfg, l)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func newLedgerServer(t *testing.T) *Server {
	t.Helper()
	return newTestServer(t, Config{RateLimitPerMinute: 1000}, services.NewLedgerService(storage.NewMemoryRepository()))
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func create(t *testing.T, srv *Server, body string) map[string]any {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/entries", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decode[map[string]any](t, rr)
}

type stubLedger struct {
	Ledger
	pingErr   error
	createErr error
	panicMsg  string
}

func (s stubLedger) Ping(context.Context) error { return s.pingErr }

func (s stubLedger) Create(context.Context, core.Record) (core.Transaction, error) {
	return core.Transaction{}, s.createErr
}

func (s stubLedger) List(context.Context, core.DateRange) ([]core.Transaction, error) {
	panic(s.panicMsg)
}

func TestRootAndHealth(t *testing.T) {
	srv := newLedgerServer(t)

	rr := do(t, srv, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("root status=%d", rr.Code)
	}
	root := decode[map[string]any](t, rr)
	if root["status"] != "Online" || root["version"] != apiVersion {
		t.Fatalf("unexpected root document %v", root)
	}
	if rr.Header().Get(trace.HeaderRequestID) == "" {
		t.Fatal("request id header missing")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}

	health := decode[map[string]any](t, do(t, srv, http.MethodGet, "/health", ""))
	if health["status"] != "OK" || health["database"] != "Connected" {
		t.Fatalf("unexpected health %v", health)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestHealthReportsDisconnectedDatabase(t *testing.T) {
	srv := newTestServer(t, Config{}, stubLedger{pingErr: errors.New("down")})

	health := decode[map[string]any](t, do(t, srv, http.MethodGet, "/health", ""))
	if health["database"] != "Disconnected" {
		t.Fatalf("database = %v", health["database"])
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestEntryLifecycle(t *testing.T) {
	srv := newLedgerServer(t)

	created := create(t, srv, `{"date":"2024-03-15","description":" Salary ","value":1500.50,"type":"credit"}`)
	if created["id"] != float64(1) || created["description"] != "Salary" || created["value"] != 1500.5 {
		t.Fatalf("unexpected created record %v", created)
	}

	for _, prefix := range []string{entriesPrefix, apiPrefix} {
		rr := do(t, srv, http.MethodGet, prefix+"/1", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s get status=%d", prefix, rr.Code)
		}
	}

	rr := do(t, srv, http.MethodPut, "/entries/1", `{"value":"10.25","type":"debit"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	updated := decode[map[string]any](t, rr)
	if updated["value"] != 10.25 || updated["type"] != "debit" || updated["description"] != "Salary" {
		t.Fatalf("partial update lost fields: %v", updated)
	}

	if rr := do(t, srv, http.MethodDelete, "/entries/1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/entries/1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
	if got := decode[errorResponse](t, rr); got.Error != msgTransactionNotFound {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	srv := newLedgerServer(t)

	tests := []struct {
		name   string
		body   string
		fields int
	}{
		{"empty object", `{}`, 4},
		{"empty body", ``, 4},
		{"bad date and type", `{"date":"2023-02-30","description":"x","value":1,"type":"CREDIT"}`, 2},
		{"negative value", `{"date":"2024-01-01","description":"x","value":-1,"type":"debit"}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/entries", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			if got := decode[validationResponse](t, rr); len(got.Errors) != tt.fields {
				t.Fatalf("errors = %+v, want %d", got.Errors, tt.fields)
			}
		})
	}

	for _, body := range []string{"not json", "null", "[1,2]", `{"a":1} {"b":2}`} {
		rr := do(t, srv, http.MethodPost, "/entries", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%q: status=%d", body, rr.Code)
		}
		if got := decode[errorResponse](t, rr); got.Error != "Invalid JSON body" {
			t.Fatalf("%q: error = %q", body, got.Error)
		}
	}
}

func TestIDErrors(t *testing.T) {
	srv := newLedgerServer(t)

	tests := []struct {
		method string
		target string
		body   string
		status int
	}{
		{http.MethodGet, "/entries/abc", "", http.StatusBadRequest},
		{http.MethodGet, "/entries/0", "", http.StatusBadRequest},
		{http.MethodGet, "/entries/99", "", http.StatusNotFound},
		{http.MethodDelete, "/entries/-3", "", http.StatusBadRequest},
		{http.MethodDelete, "/entries/99", "", http.StatusNotFound},
		{http.MethodPut, "/entries/99", `{"description":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := do(t, srv, tt.method, tt.target, tt.body)
		if rr.Code != tt.status {
			t.Fatalf("%s %s: status=%d, want %d", tt.method, tt.target, rr.Code, tt.status)
		}
	}

	rr := do(t, srv, http.MethodPut, "/entries/abc", `{"value":-1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("update bad id status=%d", rr.Code)
	}
	got := decode[validationResponse](t, rr)
	if len(got.Errors) != 1 || got.Errors[0].Field != core.FieldID {
		t.Fatalf("expected single id error, got %+v", got.Errors)
	}
}

func TestListAndAggregates(t *testing.T) {
	srv := newLedgerServer(t)
	create(t, srv, `{"date":"2023-03-05","description":"a","value":10,"type":"credit"}`)
	create(t, srv, `{"date":"2024-03-20","description":"b","value":20,"type":"credit"}`)
	create(t, srv, `{"date":"2024-03-21","description":"c","value":"7.5","type":"debit"}`)
	create(t, srv, `{"date":"2024-04-01","description":"d","value":5,"type":"debit"}`)

	all := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/entries", ""))
	if len(all) != 4 || all[0].ID != 4 {
		t.Fatalf("expected newest first, got %+v", all)
	}

	march := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/entries?start=2024-03-01&end=2024-03-31", ""))
	if len(march) != 2 {
		t.Fatalf("range returned %d", len(march))
	}

	for _, q := range []string{"?start=2024-13-01", "?start=2024-03-10&end=2024-03-01"} {
		if rr := do(t, srv, http.MethodGet, "/entries"+q, ""); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", q, rr.Code)
		}
	}

	rr := do(t, srv, http.MethodGet, "/entries/summary?month=03", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d body=%s", rr.Code, rr.Body.String())
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"credits":30,"debits":7.5,"balance":22.5,"filter":{"month":3}}` {
		t.Fatalf("summary body = %s", body)
	}

	sum := decode[map[string]any](t, do(t, srv, http.MethodGet, "/entries/summary?month=3&year=2024", ""))
	if sum["balance"] != 12.5 {
		t.Fatalf("month+year summary = %v", sum)
	}
	if rr := do(t, srv, http.MethodGet, "/entries/summary?month=13", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad month status=%d", rr.Code)
	}

	months := decode[[]core.MonthlyTotals](t, do(t, srv, http.MethodGet, "/entries/monthly?year=2024", ""))
	if len(months) != 2 || months[0].Month != "2024-03" || months[1].Month != "2024-04" {
		t.Fatalf("unexpected months %+v", months)
	}
	if !months[0].Balance.Equal(core.NewAmount("12.5")) {
		t.Fatalf("march balance = %s", months[0].Balance)
	}
	if rr := do(t, srv, http.MethodGet, "/entries/monthly?year=abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad year status=%d", rr.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv := newLedgerServer(t)

	rr := do(t, srv, http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	nf := decode[notFoundResponse](t, rr)
	if nf.Error != "Route not found" || len(nf.AvailableEndpoints) == 0 {
		t.Fatalf("unexpected 404 body %+v", nf)
	}

	rr = do(t, srv, http.MethodPatch, "/entries/1", `{}`)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PATCH status=%d", rr.Code)
	}
}

func TestPanicRecovery(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		message     string
	}{
		{"production hides detail", false, "Something went wrong"},
		{"development shows detail", true, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Config{Development: tt.development}, stubLedger{panicMsg: "boom"})
			rr := do(t, srv, http.MethodGet, "/entries", "")
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("status=%d", rr.Code)
			}
			got := decode[errorResponse](t, rr)
			if got.Error != "Internal server error" || got.Message != tt.message {
				t.Fatalf("unexpected body %+v", got)
			}
		})
	}
}

func TestStorageErrorsAreNotEchoed(t *testing.T) {
	cause := &core.StorageError{Op: "create", Err: errors.New("disk I/O error at /var/lib/secret.db")}
	srv := newTestServer(t, Config{}, stubLedger{createErr: cause})

	rr := do(t, srv, http.MethodPost, "/entries", `{}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret.db") {
		t.Fatalf("storage cause leaked: %s", rr.Body.String())
	}
	if got := decode[errorResponse](t, rr); got.Error != "Failed to save transaction." {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	srv := newTestServer(t, Config{RateLimitPerMinute: 2}, services.NewLedgerService(storage.NewMemoryRepository()))

	body := `{"date":"2024-01-01","description":"x","value":1,"type":"credit"}`
	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/entries", body); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/entries", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	for i := 0; i < 5; i++ {
		if rr := do(t, srv, http.MethodGet, "/entries", ""); rr.Code != http.StatusOK {
			t.Fatalf("reads must not be limited, got %d", rr.Code)
		}
	}
}

func TestMetricsEndpointAndCORS(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	srv := newTestServer(t, Config{MetricsHandler: metricsHandler}, services.NewLedgerService(storage.NewMemoryRepository()))

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "# metrics" {
		t.Fatalf("metrics status=%d body=%q", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodOptions, "/entries", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/entries", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
