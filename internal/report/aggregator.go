// Package report derives read-only views of the ledger and renders them.
package report

import "finance/internal/core"

// Source supplies the transaction log in insertion order.
// *ledger.Ledger satisfies it.
type Source interface {
	Transactions() []core.Transaction
}

// Aggregator computes summaries and breakdowns from a Source.
// It never mutates the log and has no failure modes.
type Aggregator struct {
	src Source
}

func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Summary returns total income, expenses, withdrawals and the balance.
func (a *Aggregator) Summary() core.Summary {
	return core.Tally(a.src.Transactions()).Summary()
}

// ExpenseByCategory sums Expense amounts per category in first-seen order.
// Categories without expenses are absent; an empty log yields an empty slice.
func (a *Aggregator) ExpenseByCategory() []core.CategoryAmount {
	return expenseByCategory(a.src.Transactions())
}

// TransactionRows projects every transaction into a display row, in
// insertion order.
func (a *Aggregator) TransactionRows() []core.Row {
	return rows(a.src.Transactions())
}

// Snapshot derives every view from a single read of the log.
func (a *Aggregator) Snapshot() core.Report {
	txs := a.src.Transactions()
	return core.Report{
		Revision:   uint64(len(txs)),
		Summary:    core.Tally(txs).Summary(),
		Categories: expenseByCategory(txs),
		Rows:       rows(txs),
	}
}

func expenseByCategory(txs []core.Transaction) []core.CategoryAmount {
	out := []core.CategoryAmount{}
	index := make(map[string]int)
	for _, tx := range txs {
		if tx.Kind != core.Expense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

func rows(txs []core.Transaction) []core.Row {
	out := make([]core.Row, len(txs))
	for i, tx := range txs {
		out[i] = core.Row{
			Kind:     tx.Kind.String(),
			Category: tx.Category,
			Amount:   tx.Amount.String(),
		}
	}
	return out
}
