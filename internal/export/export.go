// Package export publishes a ledger report to every configured sink.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance/internal/core"
	"finance/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// ErrNoSinks is returned when an exporter has nothing to write to.
var ErrNoSinks = errors.New("no export sinks configured")

// Snapshotter produces the report to export.
type Snapshotter interface {
	Snapshot() core.Report
}

// Observer is notified after every export attempt.
type Observer interface {
	ExportFinished(err error)
}

// Sink is a named report writer.
type Sink struct {
	Name   string
	Writer sheets.ReportWriter
}

type Exporter struct {
	source   Snapshotter
	sinks    []Sink
	observer Observer
	logger   *slog.Logger
}

func New(source Snapshotter, sinks []Sink, observer Observer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, sinks: sinks, observer: observer, logger: logger}
}

// Export snapshots the source once and writes it to all sinks concurrently.
// Refs come back in sink order. Any failing sink fails the export.
func (e *Exporter) Export(ctx context.Context) ([]string, error) {
	refs, err := e.export(ctx)
	if e.observer != nil {
		e.observer.ExportFinished(err)
	}
	return refs, err
}

func (e *Exporter) export(ctx context.Context) ([]string, error) {
	if len(e.sinks) == 0 {
		return nil, ErrNoSinks
	}

	start := time.Now()
	report := e.source.Snapshot()
	refs := make([]string, len(e.sinks))

	g, gctx := errgroup.WithContext(ctx)
	for i, sink := range e.sinks {
		g.Go(func() error {
			ref, err := sink.Writer.WriteReport(gctx, report)
			if err != nil {
				return fmt.Errorf("export to %s: %w", sink.Name, err)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "Report export failed",
			"revision", report.Revision,
			"error", err)
		return nil, err
	}

	e.logger.InfoContext(ctx, "Report exported",
		"revision", report.Revision,
		"sinks", len(e.sinks),
		"duration", time.Since(start))
	return refs, nil
}
