package sheets

import (
	"context"

	"finance/internal/core"
)

// Ports for outbound reporting adapters.
type (
	// ReportWriter publishes a derived report snapshot somewhere (a file,
	// a spreadsheet, a database). The returned ref identifies what was written.
	ReportWriter interface {
		WriteReport(ctx context.Context, r core.Report) (ref string, err error)
	}

	// TransactionArchiver keeps an append-only copy of recorded transactions.
	// Entries are keyed by ledger, session and sequence number: Seq restarts
	// at 1 in every session of an in-memory ledger. Archiving the same key
	// twice is a no-op.
	TransactionArchiver interface {
		ArchiveTransaction(ctx context.Context, ledgerID, session string, tx core.Transaction) error
	}
)
