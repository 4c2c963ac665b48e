package backend

import (
	"context"

	"finance/internal/export"
	"finance/internal/report"
	"finance/internal/sheets"

	goption "google.golang.org/api/option"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SinkResult contains the report sinks and a cleanup for the resources
// they hold.
type SinkResult struct {
	Sinks []export.Sink
	// Dashboard is set when the dashboard target is configured.
	Dashboard *report.Dashboard
	Cleanup   CleanupFunc
}

// ArchiveResult contains the transaction archives used by the archiver.
type ArchiveResult struct {
	Archivers []sheets.TransactionArchiver
	Cleanup   CleanupFunc
}

// Factory creates sinks based on configuration
type Factory interface {
	// CreateSinks creates one report sink per configured target.
	CreateSinks(ctx context.Context, config Config) (*SinkResult, error)
	// CreateArchivers creates the archives that mirror transaction events.
	CreateArchivers(ctx context.Context, config Config) (*ArchiveResult, error)
}

// Config holds configuration for sink creation
type Config struct {
	Targets []TargetType

	// Dashboard specific
	DashboardPath      string
	DashboardCacheSize int

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleClientOptions      []goption.ClientOption
}

// TargetType represents the type of report sink
type TargetType string

const (
	DashboardTarget TargetType = "dashboard"
	SQLiteTarget    TargetType = "sqlite"
	SheetsTarget    TargetType = "sheets"
	MemoryTarget    TargetType = "memory"
)

// String implements fmt.Stringer
func (tt TargetType) String() string {
	return string(tt)
}

// IsValid returns true if the target type is valid
func (tt TargetType) IsValid() bool {
	switch tt {
	case DashboardTarget, SQLiteTarget, SheetsTarget, MemoryTarget:
		return true
	default:
		return false
	}
}
