package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"finance/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type recordedCall struct {
	method string
	path   string
	body   []byte
}

type fakeSheets struct {
	mu    sync.Mutex
	calls []recordedCall
	fail  bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{method: r.Method, path: r.URL.Path, body: body})
	fail := f.fail
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"boom"}}`))
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func decodeValues(t *testing.T, body []byte) [][]any {
	t.Helper()
	var vr gsheet.ValueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		t.Fatalf("decode body %q: %v", body, err)
	}
	return vr.Values
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	got, err := serviceAccountCredentials(context.Background(), Config{ServiceAccountJSON: ` {"type":"service_account"} `})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline credentials: %q %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"k":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = serviceAccountCredentials(context.Background(), Config{ServiceAccountFile: path})
	if err != nil || string(got) != `{"k":1}` {
		t.Fatalf("file credentials: %q %v", got, err)
	}

	if _, err := serviceAccountCredentials(context.Background(), Config{}); err == nil ||
		!strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestClient_WriteReport(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	r := core.Report{
		Revision: 3,
		Summary: core.Summary{
			TotalIncome:  core.Cents(100000),
			TotalExpense: core.Cents(30000),
			Balance:      core.Cents(70000),
		},
		Categories: []core.CategoryAmount{{Name: "Food", Amount: core.Cents(30000)}},
		Rows: []core.Row{
			{Kind: "Income", Category: "Job", Amount: "1000.00"},
			{Kind: "Expense", Category: "Food", Amount: "200.00"},
			{Kind: "Expense", Category: "Food", Amount: "100.00"},
		},
	}

	ref, err := c.WriteReport(context.Background(), r)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if ref != "sheets:sheet-id/Transactions@3" {
		t.Fatalf("unexpected ref %q", ref)
	}

	if len(fake.calls) != 4 {
		t.Fatalf("expected clear+update per tab (4 calls), got %d", len(fake.calls))
	}
	if !strings.HasSuffix(fake.calls[0].path, "Transactions!A:C:clear") || fake.calls[0].method != http.MethodPost {
		t.Fatalf("unexpected first call: %s %s", fake.calls[0].method, fake.calls[0].path)
	}
	if !strings.HasSuffix(fake.calls[1].path, "Transactions!A1") || fake.calls[1].method != http.MethodPut {
		t.Fatalf("unexpected second call: %s %s", fake.calls[1].method, fake.calls[1].path)
	}
	values := decodeValues(t, fake.calls[1].body)
	if len(values) != 4 || values[0][0] != "Type" || values[3][1] != "Food" {
		t.Fatalf("unexpected transaction values: %v", values)
	}

	if !strings.HasSuffix(fake.calls[2].path, "Categories!A:B:clear") {
		t.Fatalf("unexpected third call: %s", fake.calls[2].path)
	}
	cats := decodeValues(t, fake.calls[3].body)
	if cats[1][0] != "Food" || cats[1][1] != 300.0 {
		t.Fatalf("unexpected category row: %v", cats[1])
	}
	last := cats[len(cats)-1]
	if last[0] != "Current Balance" || last[1] != 700.0 {
		t.Fatalf("unexpected balance row: %v", last)
	}
}

func TestClient_WriteReportPlaceholders(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	if _, err := c.WriteReport(context.Background(), core.Report{}); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	values := decodeValues(t, fake.calls[1].body)
	if len(values) != 2 || values[1][0] != "-" {
		t.Fatalf("expected placeholder row, got %v", values)
	}
	cats := decodeValues(t, fake.calls[3].body)
	if cats[1][0] != "No Expenses Recorded" {
		t.Fatalf("expected no-data placeholder, got %v", cats[1])
	}
}

func TestClient_WriteReportError(t *testing.T) {
	fake := &fakeSheets{fail: true}
	c := newTestClient(t, fake)

	_, err := c.WriteReport(context.Background(), core.Report{})
	if err == nil || !strings.Contains(err.Error(), "failed to clear") {
		t.Fatalf("expected clear error, got %v", err)
	}
}

func TestClient_ArchiveTransaction(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	tx := core.Transaction{Seq: 7, Kind: core.Withdrawal, Category: core.WithdrawalCategory, Amount: core.Cents(2550)}
	if err := c.ArchiveTransaction(context.Background(), "home", "s1", tx); err != nil {
		t.Fatalf("ArchiveTransaction: %v", err)
	}
	if len(fake.calls) != 1 || !strings.HasSuffix(fake.calls[0].path, "Journal!A:F:append") {
		t.Fatalf("unexpected calls: %+v", fake.calls)
	}
	row := decodeValues(t, fake.calls[0].body)[0]
	if row[0] != "home" || row[1] != "s1" || row[2] != 7.0 || row[3] != "Withdrawal" || row[5] != 25.5 {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestClient_ArchiveTransactionValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test"} // svc is nil

	err := c.ArchiveTransaction(context.Background(), "home", "s1", core.Transaction{Kind: core.Expense, Category: "Food"})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	err = c.ArchiveTransaction(context.Background(), "home", "s1", core.Transaction{Kind: core.Expense, Category: "Food", Amount: core.Cents(1)})
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Fatalf("expected uninitialized error, got %v", err)
	}
}
