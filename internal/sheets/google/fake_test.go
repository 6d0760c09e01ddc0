package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	testSpreadsheet = "sid"
	testSheetID     = 7
)

var rowRange = regexp.MustCompile(`!A(\d+):E\d+$`)

// fakeSheets is an in-memory stand-in for the Sheets values API.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]any
	calls   map[string]int
	sheetID int64
}

func newFakeClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	f := &fakeSheets{calls: map[string]int{}, sheetID: testSheetID}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, testSpreadsheet, "Ledger"), f
}

func (f *fakeSheets) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSheets) snapshot() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]any, len(f.rows))
	copy(out, f.rows)
	return out
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/v4/spreadsheets/" + testSpreadsheet
	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && path == base+":batchUpdate":
		f.calls["batchUpdate"]++
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, rq := range req.Requests {
			if rq.DeleteDimension == nil || rq.DeleteDimension.Range.SheetId != f.sheetID {
				http.Error(w, "unsupported request", http.StatusBadRequest)
				return
			}
			rg := rq.DeleteDimension.Range
			f.rows = append(f.rows[:rg.StartIndex], f.rows[rg.EndIndex:]...)
		}
		writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet})
	case r.Method == http.MethodGet && path == base:
		f.calls["getSpreadsheet"]++
		writeJSON(w, map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": 1, "title": "Other"}},
			map[string]any{"properties": map[string]any{"sheetId": f.sheetID, "title": "Ledger"}},
		}})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		f.calls["append"]++
		vr := decodeValues(w, r)
		if vr == nil {
			return
		}
		f.rows = append(f.rows, vr.Values...)
		writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls["clear"]++
		f.rows = nil
		writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet})
	case r.Method == http.MethodPut:
		f.calls["update"]++
		m := rowRange.FindStringSubmatch(path)
		if m == nil {
			http.Error(w, "bad range "+path, http.StatusBadRequest)
			return
		}
		start, _ := strconv.Atoi(m[1])
		vr := decodeValues(w, r)
		if vr == nil {
			return
		}
		for i, row := range vr.Values {
			idx := start - 1 + i
			for len(f.rows) <= idx {
				f.rows = append(f.rows, []any{})
			}
			f.rows[idx] = row
		}
		writeJSON(w, map[string]any{"spreadsheetId": testSpreadsheet})
	case r.Method == http.MethodGet && strings.HasPrefix(path, base+"/values/"):
		f.calls["get"]++
		writeJSON(w, map[string]any{"range": "Ledger!A:E", "majorDimension": "ROWS", "values": f.rows})
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func decodeValues(w http.ResponseWriter, r *http.Request) *gsheet.ValueRange {
	var vr gsheet.ValueRange
	if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	return &vr
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
