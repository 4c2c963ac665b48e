package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"finance/internal/amqp"
	"finance/internal/core"
	"finance/internal/sheets"
)

// TransactionConsumer delivers transaction events to a handler until ctx ends.
type TransactionConsumer interface {
	ConsumeTransactions(ctx context.Context, handler amqp.TransactionHandler) error
}

// ArchiveProcessor consumes transaction events and mirrors them into every
// configured archive. Archives must ignore re-delivered (ledger, seq) pairs.
type ArchiveProcessor struct {
	consumer  TransactionConsumer
	archivers []sheets.TransactionArchiver

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

// NewArchiveProcessor creates a new archive processor
func NewArchiveProcessor(consumer TransactionConsumer, archivers ...sheets.TransactionArchiver) *ArchiveProcessor {
	return &ArchiveProcessor{
		consumer:  consumer,
		archivers: archivers,
	}
}

// Start begins consuming in the background. Returns an error if already running.
func (p *ArchiveProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("archive processor is already running")
	}
	if p.consumer == nil {
		return fmt.Errorf("archive processor has no consumer")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.doneCh = make(chan struct{})
	p.err = nil

	go p.run(runCtx, p.doneCh)

	slog.InfoContext(ctx, "Archive processor started", "archives", len(p.archivers))
	return nil
}

func (p *ArchiveProcessor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	err := p.consumer.ConsumeTransactions(ctx, p.Handle)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "Archive processor stopped with error", "error", err)
	}

	p.mu.Lock()
	p.running = false
	p.err = err
	p.mu.Unlock()
}

// Stop cancels consumption and waits for the consumer loop to return.
func (p *ArchiveProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.doneCh
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
		slog.InfoContext(ctx, "Archive processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Archive processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done is closed when the consumer loop returns. Nil before Start.
func (p *ArchiveProcessor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

// IsRunning returns whether the processor is currently running
func (p *ArchiveProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Handle archives one transaction in every archive, stopping at the first
// failure so the event is redelivered.
func (p *ArchiveProcessor) Handle(ctx context.Context, ledgerID, session string, tx core.Transaction) error {
	for i, a := range p.archivers {
		if err := a.ArchiveTransaction(ctx, ledgerID, session, tx); err != nil {
			return fmt.Errorf("archive %d: %w", i, err)
		}
	}
	return nil
}
