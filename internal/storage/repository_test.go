package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finance/internal/core"
	"finance/internal/ledger"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "finance.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	_, path := newTestRepo(t)

	version, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second migration run: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}

func TestWriteAndReadLatestReport(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.LatestReport(ctx); !errors.Is(err, ErrNoReports) {
		t.Fatalf("expected ErrNoReports, got %v", err)
	}

	first := core.Report{Revision: 1, Summary: core.Summary{TotalIncome: core.Cents(500), Balance: core.Cents(500)}}
	if _, err := repo.WriteReport(ctx, first); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	second := core.Report{
		Revision: 4,
		Summary: core.Summary{
			TotalIncome:     core.Cents(100000),
			TotalExpense:    core.Cents(35000),
			TotalWithdrawal: core.Cents(2500),
			Balance:         core.Cents(62500),
		},
		Categories: []core.CategoryAmount{
			{Name: "Rent", Amount: core.Cents(5000)},
			{Name: "Food", Amount: core.Cents(30000)},
		},
		Rows: make([]core.Row, 4),
	}
	ref, err := repo.WriteReport(ctx, second)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if ref != "sqlite:report/2" {
		t.Fatalf("unexpected ref %q", ref)
	}

	got, err := repo.LatestReport(ctx)
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if got.Revision != 4 || got.Summary != second.Summary {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if len(got.Categories) != 2 || got.Categories[0].Name != "Rent" || got.Categories[1].Amount.Cents != 30000 {
		t.Fatalf("categories must keep their order: %+v", got.Categories)
	}
}

func TestArchiveTransaction(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	txs := []core.Transaction{
		{Seq: 2, Kind: core.Expense, Category: "Food", Amount: core.Cents(20000)},
		{Seq: 1, Kind: core.Income, Category: "Job", Amount: core.Cents(100000)},
		{Seq: 3, Kind: core.Withdrawal, Category: core.WithdrawalCategory, Amount: core.Cents(100)},
	}
	for _, tx := range txs {
		if err := repo.ArchiveTransaction(ctx, "home", "s1", tx); err != nil {
			t.Fatalf("ArchiveTransaction(%d): %v", tx.Seq, err)
		}
	}
	// redelivery
	if err := repo.ArchiveTransaction(ctx, "home", "s1", txs[0]); err != nil {
		t.Fatalf("duplicate archive must be ignored: %v", err)
	}
	if err := repo.ArchiveTransaction(ctx, "other", "s1", txs[1]); err != nil {
		t.Fatalf("ArchiveTransaction other ledger: %v", err)
	}

	got, err := repo.ListArchived(ctx, "home")
	if err != nil {
		t.Fatalf("ListArchived: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 archived transactions, got %d", len(got))
	}
	for i, want := range []uint64{2, 1, 3} {
		if got[i].Seq != want {
			t.Fatalf("expected archive order, got %+v", got)
		}
	}
	if got[2].Kind != core.Withdrawal || got[2].Category != "Cash" || got[1].Amount.Cents != 100000 {
		t.Fatalf("unexpected round trip: %+v", got)
	}

	if err := repo.ArchiveTransaction(ctx, "home", "", txs[0]); err == nil {
		t.Fatal("expected error without session")
	}

	err = repo.ArchiveTransaction(ctx, "home", "s1", core.Transaction{Seq: 9, Kind: core.Expense, Category: "", Amount: core.Cents(1)})
	if !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestArchiveKeepsEverySession(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	// Two runs of the in-memory ledger under the same LEDGER_ID both start at seq 1.
	sessions := []struct {
		id     string
		amount int64
	}{
		{"run-1", 1000},
		{"run-2", 2000},
	}
	for _, s := range sessions {
		l := ledger.New()
		tx, err := l.RecordIncome("Job", core.Cents(s.amount))
		if err != nil {
			t.Fatalf("RecordIncome: %v", err)
		}
		if err := repo.ArchiveTransaction(ctx, "default", s.id, tx); err != nil {
			t.Fatalf("ArchiveTransaction(%s): %v", s.id, err)
		}
	}

	got, err := repo.ListArchived(ctx, "default")
	if err != nil {
		t.Fatalf("ListArchived: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both runs archived, got %+v", got)
	}
	if got[0].Amount.Cents != 1000 || got[1].Amount.Cents != 2000 || got[0].Seq != 1 || got[1].Seq != 1 {
		t.Fatalf("unexpected archive: %+v", got)
	}
}
