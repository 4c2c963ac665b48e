package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finance/internal/core"
	ports "finance/internal/sheets"
)

var (
	_ ports.ReportWriter        = (*Store)(nil)
	_ ports.TransactionArchiver = (*Store)(nil)
)

// Store keeps written reports and archived transactions in memory.
type Store struct {
	mu       sync.Mutex
	reports  []core.Report
	archived map[string][]archivedTx
}

type archivedTx struct {
	session string
	tx      core.Transaction
}

func New() *Store {
	return &Store{archived: make(map[string][]archivedTx)}
}

// WriteReport stores the report and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, r core.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// ArchiveTransaction stores tx unless the same (ledger, session, seq) was
// archived before.
func (s *Store) ArchiveTransaction(_ context.Context, ledgerID, session string, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.archived[ledgerID] {
		if existing.session == session && existing.tx.Seq == tx.Seq {
			return nil
		}
	}
	s.archived[ledgerID] = append(s.archived[ledgerID], archivedTx{session: session, tx: tx})
	return nil
}

// Reports returns a copy of every report written so far.
func (s *Store) Reports() []core.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Report(nil), s.reports...)
}

// Archived returns the archived transactions of a ledger across sessions,
// in archive order.
func (s *Store) Archived(ledgerID string) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.archived[ledgerID]))
	for _, a := range s.archived[ledgerID] {
		out = append(out, a.tx)
	}
	return out
}

// LoadCategories reads the suggested expense categories from
// base/seed_categories.txt, falling back to core.SuggestedCategories.
func LoadCategories(base string) []string {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		return append([]string(nil), core.SuggestedCategories...)
	}
	return cats
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, preserving input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
