package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finance/internal/export"
	"finance/internal/report"
	"finance/internal/sheets"
	gsheet "finance/internal/sheets/google"
	"finance/internal/sheets/memory"
	"finance/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new sink factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateSinks implements Factory.CreateSinks. On failure every resource
// opened so far is released.
func (f *DefaultFactory) CreateSinks(ctx context.Context, config Config) (*SinkResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	result := &SinkResult{}
	var cleanups cleanupList

	for _, target := range config.Targets {
		var (
			writer sheets.ReportWriter
			err    error
		)
		switch target {
		case DashboardTarget:
			var d *report.Dashboard
			d, err = report.NewDashboard(config.DashboardPath, config.DashboardCacheSize)
			if err == nil {
				result.Dashboard = d
				writer = d
				f.logger.Info("Initialized dashboard sink", "path", config.DashboardPath)
			}
		case SQLiteTarget:
			var repo *storage.SQLiteRepository
			repo, err = f.createSQLite(config)
			if err == nil {
				cleanups = append(cleanups, repo.Close)
				writer = repo
			}
		case SheetsTarget:
			writer, err = f.createSheets(ctx, config)
		case MemoryTarget:
			writer = memory.New()
			f.logger.Info("Initialized memory sink")
		default:
			err = fmt.Errorf("unsupported export target: %s", target)
		}
		if err != nil {
			cleanups.run()
			return nil, fmt.Errorf("create %s sink: %w", target, err)
		}
		result.Sinks = append(result.Sinks, export.Sink{Name: target.String(), Writer: writer})
	}

	result.Cleanup = cleanups.run
	return result, nil
}

// CreateArchivers implements Factory.CreateArchivers. SQLite is always used;
// the Sheets journal is added when the sheets target is configured.
func (f *DefaultFactory) CreateArchivers(ctx context.Context, config Config) (*ArchiveResult, error) {
	if config.SQLiteDBPath == "" {
		return nil, fmt.Errorf("SQLite database path is required for archiving")
	}

	repo, err := f.createSQLite(config)
	if err != nil {
		return nil, err
	}
	result := &ArchiveResult{
		Archivers: []sheets.TransactionArchiver{repo},
		Cleanup:   repo.Close,
	}

	if config.Has(SheetsTarget) {
		client, err := f.createSheets(ctx, config)
		if err != nil {
			repo.Close()
			return nil, err
		}
		result.Archivers = append(result.Archivers, client)
	}

	return result, nil
}

func (f *DefaultFactory) createSQLite(config Config) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite sink", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, config Config) (*gsheet.Client, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		TransactionsSheet:  config.GoogleTransactionsSheet,
		CategoriesSheet:    config.GoogleCategoriesSheet,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, config.GoogleClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets sink", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}

type cleanupList []CleanupFunc

// run releases resources in reverse order of acquisition.
func (l cleanupList) run() error {
	var errs []error
	for i := len(l) - 1; i >= 0; i-- {
		if err := l[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
