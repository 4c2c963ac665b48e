// Package ledger owns the append-only transaction log and the withdrawal
// solvency rule.
package ledger

import (
	"sync"

	"finance/internal/core"
)

// Ledger is an in-memory, append-only transaction log.
//
// The running totals are updated with core.Totals.Add under the same lock as
// the append, so Balance always equals core.Tally over Transactions.
// A Ledger is safe for concurrent use.
type Ledger struct {
	mu     sync.RWMutex
	txs    []core.Transaction
	totals core.Totals
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// RecordIncome appends an Income transaction labelled with its source.
func (l *Ledger) RecordIncome(source string, amount core.Money) (core.Transaction, error) {
	tx, _, err := l.Append(core.Income, source, amount)
	return tx, err
}

// RecordExpense appends an Expense transaction. The category is free text;
// it is not checked against core.SuggestedCategories.
func (l *Ledger) RecordExpense(category string, amount core.Money) (core.Transaction, error) {
	tx, _, err := l.Append(core.Expense, category, amount)
	return tx, err
}

// Withdraw appends a Withdrawal if amount does not exceed the current balance.
// Otherwise it returns *core.InsufficientFundsError carrying that balance and
// leaves the log untouched. The check and the append happen under one lock.
func (l *Ledger) Withdraw(amount core.Money) (core.Transaction, error) {
	tx, _, err := l.Append(core.Withdrawal, core.WithdrawalCategory, amount)
	return tx, err
}

// Append records one transaction of any kind and returns it together with the
// balance right after it. Withdrawals ignore label and use
// core.WithdrawalCategory. An append that would overflow a total returns
// core.ErrAmountTooLarge.
func (l *Ledger) Append(kind core.Kind, label string, amount core.Money) (core.Transaction, core.Money, error) {
	if !kind.Valid() {
		return core.Transaction{}, core.Money{}, core.ErrInvalidKind
	}
	category := core.WithdrawalCategory
	if kind != core.Withdrawal {
		var err error
		if category, err = core.NormalizeCategory(label); err != nil {
			return core.Transaction{}, core.Money{}, err
		}
	}
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, core.Money{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.totals.Balance()
	if kind == core.Withdrawal && amount.Cents > balance.Cents {
		return core.Transaction{}, balance, &core.InsufficientFundsError{Balance: balance}
	}

	tx := core.Transaction{
		Seq:      uint64(len(l.txs)) + 1,
		Kind:     kind,
		Category: category,
		Amount:   amount,
	}
	if err := l.totals.CheckAdd(tx); err != nil {
		return core.Transaction{}, balance, err
	}
	l.txs = append(l.txs, tx)
	l.totals.Add(tx)
	return tx, l.totals.Balance(), nil
}

// Len is the number of transactions recorded so far.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// Balance returns income minus expenses minus withdrawals. Zero for an empty ledger.
func (l *Ledger) Balance() core.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals.Balance()
}

// Transactions returns a snapshot of the log in insertion order.
// Each call returns a fresh copy.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Revision is the number of transactions recorded so far. Since the log is
// append-only, equal revisions imply equal contents.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.txs))
}
