package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finance/internal/core"
	ports "finance/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultTransactionsSheet = "Transactions"
	defaultCategoriesSheet   = "Categories"
	defaultJournalSheet      = "Journal"
)

// Config selects the spreadsheet and the tabs the client writes to.
type Config struct {
	SpreadsheetID      string
	TransactionsSheet  string
	CategoriesSheet    string
	JournalSheet       string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	categoriesSheet   string
	journalSheet      string
}

// Ensure interface conformance
var (
	_ ports.ReportWriter        = (*Client)(nil)
	_ ports.TransactionArchiver = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
// Extra options are passed to the Sheets service constructor.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: orDefault(cfg.TransactionsSheet, defaultTransactionsSheet),
		categoriesSheet:   orDefault(cfg.CategoriesSheet, defaultCategoriesSheet),
		journalSheet:      orDefault(cfg.JournalSheet, defaultJournalSheet),
	}, nil
}

// serviceAccountCredentials resolves inline JSON, a credentials file, or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func serviceAccountCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials file", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteReport replaces the transactions and categories tabs with the report.
func (c *Client) WriteReport(ctx context.Context, r core.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	txRange := fmt.Sprintf("%s!A:C", c.transactionsSheet)
	if err := c.replace(ctx, txRange, c.transactionsSheet, transactionValues(r)); err != nil {
		return "", err
	}

	catRange := fmt.Sprintf("%s!A:B", c.categoriesSheet)
	if err := c.replace(ctx, catRange, c.categoriesSheet, categoryValues(r)); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Report written to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"revision", r.Revision,
		"rows", len(r.Rows),
		"categories", len(r.Categories))

	return fmt.Sprintf("sheets:%s/%s@%d", c.spreadsheetID, c.transactionsSheet, r.Revision), nil
}

func (c *Client) replace(ctx context.Context, clearRange, sheet string, values [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	target := fmt.Sprintf("%s!A1", sheet)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, target, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", target, err)
	}
	return nil
}

// ArchiveTransaction appends one transaction to the journal tab. The journal
// is append-only, so a redelivered event can appear twice; the
// (ledger, session, seq) columns identify duplicates.
func (c *Client) ArchiveTransaction(ctx context.Context, ledgerID, session string, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:F", c.journalSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{ledgerID, session, tx.Seq, tx.Kind.String(), tx.Category, tx.Amount.Float()}}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", c.journalSheet, err)
	}
	return nil
}

func transactionValues(r core.Report) [][]any {
	values := [][]any{{"Type", "Category", "Amount ($)"}}
	if len(r.Rows) == 0 {
		return append(values, []any{"-", "-", "-"})
	}
	for _, row := range r.Rows {
		values = append(values, []any{row.Kind, row.Category, row.Amount})
	}
	return values
}

func categoryValues(r core.Report) [][]any {
	values := [][]any{{"Category", "Amount ($)"}}
	if len(r.Categories) == 0 {
		values = append(values, []any{"No Expenses Recorded", ""})
	}
	for _, c := range r.Categories {
		values = append(values, []any{c.Name, c.Amount.Float()})
	}
	s := r.Summary
	return append(values,
		[]any{"", ""},
		[]any{"Total Income", s.TotalIncome.Float()},
		[]any{"Total Expenses", s.TotalExpense.Float()},
		[]any{"Total Withdrawals", s.TotalWithdrawal.Float()},
		[]any{"Current Balance", s.Balance.Float()},
	)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
