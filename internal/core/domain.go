package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Income Kind = iota + 1
	Expense
	Withdrawal
)

// WithdrawalCategory is the fixed label attached to every withdrawal.
const WithdrawalCategory = "Cash"

// MaxCategoryLength bounds category and income source labels (in runes).
const MaxCategoryLength = 100

// SuggestedCategories are offered to the user when recording an expense.
// They are advisory only; any non-blank label is accepted.
var SuggestedCategories = []string{"Food", "Rent", "Transport", "Entertainment", "Other"}

type (
	// Kind classifies a transaction. The zero value is not a valid kind.
	Kind uint8

	Money struct {
		Cents int64
	}

	// Transaction is an entry of the ledger log. Seq is its 1-based position.
	Transaction struct {
		Seq      uint64
		Kind     Kind
		Category string
		Amount   Money
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrEmptyCategory     = errors.New("empty category")
	ErrCategoryTooLong   = errors.New("category too long")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmountTooLarge    = errors.New("amount too large")
)

// InsufficientFundsError is returned when a withdrawal exceeds the balance.
// Balance is the balance observed at validation time.
type InsufficientFundsError struct {
	Balance Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: current balance %s", e.Balance)
}

// Is makes errors.Is(err, ErrInsufficientFunds) hold.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

func (k Kind) String() string {
	switch k {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	case Withdrawal:
		return "Withdrawal"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	switch k {
	case Income, Expense, Withdrawal:
		return true
	}
	return false
}

// ParseKind is the inverse of Kind.String (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	case "withdrawal":
		return Withdrawal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeCategory trims the label and checks it is usable.
func NormalizeCategory(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyCategory
	}
	if utf8.RuneCountInString(s) > MaxCategoryLength {
		return "", ErrCategoryTooLong
	}
	return s, nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if _, err := NormalizeCategory(t.Category); err != nil {
		return err
	}
	if t.Kind == Withdrawal && t.Category != WithdrawalCategory {
		return fmt.Errorf("withdrawal category must be %q", WithdrawalCategory)
	}
	return t.Amount.Validate()
}
