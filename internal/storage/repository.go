package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finance/internal/core"
	ports "finance/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ ports.ReportWriter        = (*SQLiteRepository)(nil)
	_ ports.TransactionArchiver = (*SQLiteRepository)(nil)
)

// ErrNoReports is returned by LatestReport when nothing was written yet.
var ErrNoReports = errors.New("no reports stored")

// SQLiteRepository stores report snapshots and the archived transaction
// stream. The live ledger is never loaded back from it.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers; sqlite allows one at a time anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	slog.Debug("SQLite repository ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WriteReport implements sheets.ReportWriter. Summary and category totals are
// stored; transaction rows are counted only.
func (r *SQLiteRepository) WriteReport(ctx context.Context, rep core.Report) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s := rep.Summary
	res, err := tx.ExecContext(ctx, `
		INSERT INTO report_snapshots
			(revision, total_income_cents, total_expense_cents, total_withdrawal_cents, balance_cents, row_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rep.Revision, s.TotalIncome.Cents, s.TotalExpense.Cents, s.TotalWithdrawal.Cents, s.Balance.Cents, len(rep.Rows))
	if err != nil {
		return "", fmt.Errorf("insert report snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("report snapshot id: %w", err)
	}

	for i, c := range rep.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_categories (snapshot_id, position, name, amount_cents) VALUES (?, ?, ?, ?)`,
			id, i, c.Name, c.Amount.Cents); err != nil {
			return "", fmt.Errorf("insert report category %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit report snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Report snapshot saved to SQLite",
		"id", id,
		"revision", rep.Revision,
		"categories", len(rep.Categories))

	return fmt.Sprintf("sqlite:report/%d", id), nil
}

// LatestReport returns the most recent snapshot with its categories in
// their original order. Rows are not stored and come back empty.
func (r *SQLiteRepository) LatestReport(ctx context.Context) (core.Report, error) {
	var (
		id  int64
		rep core.Report
		s   = &rep.Summary
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, revision, total_income_cents, total_expense_cents, total_withdrawal_cents, balance_cents
		FROM report_snapshots ORDER BY id DESC LIMIT 1`).
		Scan(&id, &rep.Revision, &s.TotalIncome.Cents, &s.TotalExpense.Cents, &s.TotalWithdrawal.Cents, &s.Balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, ErrNoReports
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get latest report: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, amount_cents FROM report_categories WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return core.Report{}, fmt.Errorf("get report categories: %w", err)
	}
	defer rows.Close()

	rep.Categories = []core.CategoryAmount{}
	for rows.Next() {
		var c core.CategoryAmount
		if err := rows.Scan(&c.Name, &c.Amount.Cents); err != nil {
			return core.Report{}, fmt.Errorf("scan report category: %w", err)
		}
		rep.Categories = append(rep.Categories, c)
	}
	return rep, rows.Err()
}

// ArchiveTransaction implements sheets.TransactionArchiver. Re-delivered
// transactions (same ledger, session and seq) are ignored.
func (r *SQLiteRepository) ArchiveTransaction(ctx context.Context, ledgerID, session string, t core.Transaction) error {
	if session == "" {
		return errors.New("archive transaction: missing session")
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO archived_transactions (ledger_id, session, seq, kind, category, amount_cents)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (ledger_id, session, seq) DO NOTHING`,
		ledgerID, session, t.Seq, t.Kind.String(), t.Category, t.Amount.Cents)
	if err != nil {
		return fmt.Errorf("archive transaction: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		slog.DebugContext(ctx, "Transaction already archived",
			"ledger_id", ledgerID,
			"session", session,
			"seq", t.Seq)
		return nil
	}
	slog.InfoContext(ctx, "Transaction archived to SQLite",
		"ledger_id", ledgerID,
		"session", session,
		"seq", t.Seq,
		"kind", t.Kind.String(),
		"amount_cents", t.Amount.Cents)
	return nil
}

// ListArchived returns the archived transactions of a ledger across all its
// sessions, in the order they were archived.
func (r *SQLiteRepository) ListArchived(ctx context.Context, ledgerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, kind, category, amount_cents
		FROM archived_transactions WHERE ledger_id = ? ORDER BY id`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("list archived transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			kind string
		)
		if err := rows.Scan(&t.Seq, &kind, &t.Category, &t.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan archived transaction: %w", err)
		}
		if t.Kind, err = core.ParseKind(kind); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
