package services

import (
	"context"
	"errors"

	"finance/internal/amqp"
	"finance/internal/core"
	"finance/internal/ledger"
	"finance/internal/log"
	"finance/internal/obs"

	"github.com/google/uuid"
)

// EventPublisher hands transaction events to the broker.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, msg *amqp.TransactionRecordedMessage) error
}

// LedgerService orchestrates ledger mutations with logging, metrics and
// event publication. The ledger stays the single source of truth: a failed
// publish never undoes an append.
type LedgerService struct {
	ledgerID  string
	session   string
	ledger    *ledger.Ledger
	publisher EventPublisher
	metrics   *obs.Metrics
	logger    *log.Logger
}

// NewLedgerService wires a ledger. publisher and metrics may be nil.
// Each service gets a fresh session ID, which together with the ledger ID
// and Seq identifies a transaction across process restarts.
func NewLedgerService(ledgerID string, l *ledger.Ledger, publisher EventPublisher, metrics *obs.Metrics, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	session := uuid.NewString()
	return &LedgerService{
		ledgerID:  ledgerID,
		session:   session,
		ledger:    l,
		publisher: publisher,
		metrics:   metrics,
		logger: logger.WithComponent(log.ComponentLedger).
			With(log.FieldLedgerID, ledgerID, log.FieldSession, session),
	}
}

func (s *LedgerService) LedgerID() string { return s.ledgerID }

// Session identifies this run of the in-memory ledger.
func (s *LedgerService) Session() string { return s.session }

// RecordIncome appends an income from source.
func (s *LedgerService) RecordIncome(ctx context.Context, source string, amount core.Money) (core.Transaction, error) {
	tx, balance, err := s.ledger.Append(core.Income, source, amount)
	return s.after(ctx, log.OpRecordIncome, tx, balance, err)
}

// RecordExpense appends an expense under category.
func (s *LedgerService) RecordExpense(ctx context.Context, category string, amount core.Money) (core.Transaction, error) {
	tx, balance, err := s.ledger.Append(core.Expense, category, amount)
	return s.after(ctx, log.OpRecordExpense, tx, balance, err)
}

// Withdraw appends a cash withdrawal or returns *core.InsufficientFundsError.
func (s *LedgerService) Withdraw(ctx context.Context, amount core.Money) (core.Transaction, error) {
	tx, balance, err := s.ledger.Append(core.Withdrawal, core.WithdrawalCategory, amount)
	return s.after(ctx, log.OpWithdraw, tx, balance, err)
}

func (s *LedgerService) Balance() core.Money {
	return s.ledger.Balance()
}

// Transactions returns a snapshot of the log in append order.
func (s *LedgerService) Transactions() []core.Transaction {
	return s.ledger.Transactions()
}

// after reports an append. balance is the one observed by that append, not a
// later read.
func (s *LedgerService) after(ctx context.Context, op string, tx core.Transaction, balance core.Money, err error) (core.Transaction, error) {
	if err != nil {
		s.logFailure(ctx, op, err)
		return tx, err
	}

	if s.metrics != nil {
		s.metrics.TransactionRecorded(tx.Kind, balance)
	}
	fields := log.NewFields().WithOperation(op).WithTransaction(tx).WithBalance(balance)
	s.logger.InfoContext(ctx, "Transaction recorded", fields.ToSlice()...)

	s.publish(ctx, tx)
	return tx, nil
}

func (s *LedgerService) logFailure(ctx context.Context, op string, err error) {
	var insufficient *core.InsufficientFundsError
	if errors.As(err, &insufficient) {
		if s.metrics != nil {
			s.metrics.WithdrawalRejected()
		}
		fields := log.NewFields().WithOperation(op).
			WithErrorType(log.ErrorTypeInsufficientFunds).
			WithBalance(insufficient.Balance)
		s.logger.WarnContext(ctx, "Withdrawal rejected", fields.ToSlice()...)
		return
	}

	fields := log.NewFields().WithOperation(op).WithError(err).WithErrorType(log.ErrorTypeValidation)
	s.logger.InfoContext(ctx, "Transaction rejected", fields.ToSlice()...)
}

func (s *LedgerService) publish(ctx context.Context, tx core.Transaction) {
	if s.publisher == nil {
		return
	}

	msg := amqp.NewTransactionRecordedMessage(s.ledgerID, s.session, tx)
	err := s.publisher.PublishTransaction(ctx, msg)
	if s.metrics != nil {
		s.metrics.EventPublished(err)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			log.FieldSeq, tx.Seq,
			log.FieldMessageID, msg.ID,
			log.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Transaction event published",
		log.FieldSeq, tx.Seq,
		log.FieldMessageID, msg.ID)
}
