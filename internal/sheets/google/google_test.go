package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finadvisor/internal/core"
)

// fakeSheets serves the handful of Sheets API calls the client makes against
// a single in-memory sheet.
type fakeSheets struct {
	mu      sync.Mutex
	title   string
	sheetID int64
	rows    [][]any
	deletes int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start := len(f.rows) + 1
		f.rows = append(f.rows, vr.Values...)
		writeJSON(w, map[string]any{"updates": map[string]any{
			"updatedRange": fmt.Sprintf("%s!A%d:F%d", f.title, start, len(f.rows)),
		}})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, rq := range req.Requests {
			d := rq.DeleteDimension
			if d == nil || d.Range.SheetId != f.sheetID {
				http.Error(w, "unexpected request", http.StatusBadRequest)
				return
			}
			f.rows = append(f.rows[:d.Range.StartIndex], f.rows[d.Range.EndIndex:]...)
			f.deletes++
		}
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		col := make([][]any, 0, len(f.rows))
		for _, row := range f.rows {
			col = append(col, row[:1])
		}
		writeJSON(w, map[string]any{"values": col})
	case r.Method == http.MethodGet:
		writeJSON(w, map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": f.sheetID, "title": f.title}},
		}})
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{title: "Transactions", sheetID: 7}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func tx(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     core.Expense,
		Category: "Travel",
		Amount:   core.Money{Cents: 15000},
		Date:     core.NewDate(2025, 6, 1),
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	ref, err := c.AppendTransaction(ctx, tx("a"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Transactions!A1:F2" {
		t.Errorf("unexpected ref %q", ref)
	}
	if _, err := c.AppendTransaction(ctx, tx("b")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fake.rows) != 3 || fake.rows[0][0] != "ID" || fake.rows[2][0] != "b" {
		t.Fatalf("unexpected rows %v", fake.rows)
	}
}

func TestAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	for i := 0; i < 2; i++ {
		if _, err := c.AppendTransaction(ctx, tx("a")); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if len(fake.rows) != 2 {
		t.Fatalf("redelivery duplicated the row: %v", fake.rows)
	}
}

func TestDeleteRemovesMatchingRow(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := c.AppendTransaction(ctx, tx(id)); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.DeleteTransaction(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.rows) != 3 || fake.rows[1][0] != "a" || fake.rows[2][0] != "c" {
		t.Fatalf("unexpected rows after delete %v", fake.rows)
	}

	if err := c.DeleteTransaction(ctx, "missing"); err != nil {
		t.Fatalf("missing row must not fail: %v", err)
	}
	if fake.deletes != 1 {
		t.Fatalf("expected one delete request, got %d", fake.deletes)
	}
}

func TestAppendRejectsInvalidTransaction(t *testing.T) {
	c, _ := newTestClient(t)
	if _, err := c.AppendTransaction(context.Background(), core.Transaction{ID: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}
