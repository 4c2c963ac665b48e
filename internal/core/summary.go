package core

import "math"

// Totals accumulates amounts per kind. Add is the single place where a
// transaction contributes to the balance.
type Totals struct {
	Income     Money
	Expense    Money
	Withdrawal Money
}

// Add folds t into the totals. Transactions with an unknown kind are ignored.
func (t *Totals) Add(tx Transaction) {
	switch tx.Kind {
	case Income:
		t.Income = t.Income.Add(tx.Amount)
	case Expense:
		t.Expense = t.Expense.Add(tx.Amount)
	case Withdrawal:
		t.Withdrawal = t.Withdrawal.Add(tx.Amount)
	}
}

// CheckAdd returns ErrAmountTooLarge if adding tx would overflow its kind's
// total or the balance. Amounts are assumed positive.
func (t Totals) CheckAdd(tx Transaction) error {
	var total Money
	switch tx.Kind {
	case Income:
		total = t.Income
	case Expense:
		total = t.Expense
	case Withdrawal:
		total = t.Withdrawal
	default:
		return nil
	}
	if tx.Amount.Cents > math.MaxInt64-total.Cents {
		return ErrAmountTooLarge
	}
	// Expense+Withdrawal stays within int64, so Income minus it cannot wrap.
	if tx.Kind != Income && tx.Amount.Cents > math.MaxInt64-t.Expense.Cents-t.Withdrawal.Cents {
		return ErrAmountTooLarge
	}
	return nil
}

// Balance is income minus expenses minus withdrawals.
func (t Totals) Balance() Money {
	return t.Income.Sub(t.Expense).Sub(t.Withdrawal)
}

// Summary converts the totals into the reporting shape.
func (t Totals) Summary() Summary {
	return Summary{
		TotalIncome:     t.Income,
		TotalExpense:    t.Expense,
		TotalWithdrawal: t.Withdrawal,
		Balance:         t.Balance(),
	}
}

// Tally recomputes the totals of a full log.
func Tally(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		t.Add(tx)
	}
	return t
}

// Summary holds the four scalar sums shown in reports.
type Summary struct {
	TotalIncome     Money
	TotalExpense    Money
	TotalWithdrawal Money
	Balance         Money
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Row is a stringified transaction for tabular output.
type Row struct {
	Kind     string
	Category string
	Amount   string
}

// Report is a consistent snapshot of every derived view, taken from one read
// of the log. Revision is the number of transactions it covers.
type Report struct {
	Revision   uint64
	Summary    Summary
	Categories []CategoryAmount
	Rows       []Row
}
