package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"finance/internal/core"
	"finance/internal/log"
)

// Ledger is the mutation surface the menu drives.
type Ledger interface {
	RecordIncome(ctx context.Context, source string, amount core.Money) (core.Transaction, error)
	RecordExpense(ctx context.Context, category string, amount core.Money) (core.Transaction, error)
	Withdraw(ctx context.Context, amount core.Money) (core.Transaction, error)
	Balance() core.Money
}

// SummaryView provides the totals shown by "View Summary".
type SummaryView interface {
	Summary() core.Summary
}

// Exporter writes the current report to the configured sinks.
type Exporter interface {
	Export(ctx context.Context) ([]string, error)
}

// errEOF ends the menu loop when input runs out.
var errEOF = errors.New("end of input")

// Menu is the interactive text front end of a ledger.
type Menu struct {
	in         *bufio.Scanner
	out        io.Writer
	ledger     Ledger
	summary    SummaryView
	exporter   Exporter
	categories []string
	logger     *log.Logger
}

// NewMenu creates a menu. exporter may be nil; categories are only shown as
// suggestions.
func NewMenu(in io.Reader, out io.Writer, ledger Ledger, summary SummaryView, exporter Exporter, categories []string, logger *log.Logger) *Menu {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if len(categories) == 0 {
		categories = core.SuggestedCategories
	}
	return &Menu{
		in:         bufio.NewScanner(in),
		out:        out,
		ledger:     ledger,
		summary:    summary,
		exporter:   exporter,
		categories: categories,
		logger:     logger.WithComponent(log.ComponentCLI),
	}
}

// Run shows the menu until the user quits, input ends or ctx is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, err := m.prompt("Choose an option: ")
		if err != nil {
			return m.endOfInput(err)
		}

		switch choice {
		case "1":
			err = m.addExpense(ctx)
		case "2":
			err = m.addIncome(ctx)
		case "3":
			err = m.withdraw(ctx)
		case "4":
			m.viewSummary()
		case "5":
			m.printf("\nCurrent Balance: $%s\n\n", m.ledger.Balance())
		case "6":
			m.exportReport(ctx)
		case "7":
			m.printf("Goodbye!\n")
			return nil
		default:
			m.printf("Invalid choice, please try again.\n\n")
		}
		if err != nil {
			return m.endOfInput(err)
		}
	}
}

func (m *Menu) printMenu() {
	m.printf("=== Finance Tracker ===\n" +
		"1. Add Expense\n" +
		"2. Add Income\n" +
		"3. Withdraw\n" +
		"4. View Summary\n" +
		"5. View Balance\n" +
		"6. Generate Dashboard\n" +
		"7. Quit\n")
}

func (m *Menu) addExpense(ctx context.Context) error {
	category, err := m.prompt(fmt.Sprintf("Enter category (%s): ", strings.Join(m.categories, ", ")))
	if err != nil {
		return err
	}
	amount, ok, err := m.promptAmount("Enter amount: ")
	if err != nil || !ok {
		return err
	}

	tx, err := m.ledger.RecordExpense(ctx, category, amount)
	if err != nil {
		m.printf("%s\n\n", describe(err))
		return nil
	}
	m.printf("Expense of $%s added under %s.\n\n", tx.Amount, tx.Category)
	return nil
}

func (m *Menu) addIncome(ctx context.Context) error {
	source, err := m.prompt("Enter income source (Job, Gift, etc): ")
	if err != nil {
		return err
	}
	amount, ok, err := m.promptAmount("Enter income amount: ")
	if err != nil || !ok {
		return err
	}

	tx, err := m.ledger.RecordIncome(ctx, source, amount)
	if err != nil {
		m.printf("%s\n\n", describe(err))
		return nil
	}
	m.printf("Income of $%s added from %s.\n\n", tx.Amount, tx.Category)
	return nil
}

func (m *Menu) withdraw(ctx context.Context) error {
	amount, ok, err := m.promptAmount("Enter withdrawal amount: ")
	if err != nil || !ok {
		return err
	}

	tx, err := m.ledger.Withdraw(ctx, amount)
	if err != nil {
		m.printf("%s\n\n", describe(err))
		return nil
	}
	m.printf("Withdrawal of $%s recorded.\n\n", tx.Amount)
	return nil
}

func (m *Menu) viewSummary() {
	s := m.summary.Summary()
	m.printf("\n--- SUMMARY ---\n")
	m.printf("Total Income:      $%s\n", s.TotalIncome)
	m.printf("Total Expenses:    $%s\n", s.TotalExpense)
	m.printf("Total Withdrawals: $%s\n", s.TotalWithdrawal)
	m.printf("Current Balance:   $%s\n\n", s.Balance)
}

func (m *Menu) exportReport(ctx context.Context) {
	if m.exporter == nil {
		m.printf("No export targets configured.\n\n")
		return
	}
	refs, err := m.exporter.Export(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Report export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		m.printf("Failed to generate dashboard: %v\n\n", err)
		return
	}
	m.printf("\n")
	for _, ref := range refs {
		m.printf("Dashboard saved to: %s\n", ref)
	}
	m.printf("\n")
}

// promptAmount reads an amount. ok is false when the text was rejected and
// the user has already been told why.
func (m *Menu) promptAmount(label string) (core.Money, bool, error) {
	text, err := m.prompt(label)
	if err != nil {
		return core.Money{}, false, err
	}
	amount, err := core.ParseMoney(text)
	if err != nil {
		m.logger.Debug("Rejected amount input", log.FieldOperation, log.OpParse, log.FieldError, err)
		m.printf("Invalid amount %q: enter a positive number such as 12.50\n\n", text)
		return core.Money{}, false, nil
	}
	return amount, true, nil
}

func (m *Menu) prompt(label string) (string, error) {
	m.printf("%s", label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", errEOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) endOfInput(err error) error {
	if errors.Is(err, errEOF) {
		m.printf("\n")
		return nil
	}
	return fmt.Errorf("read input: %w", err)
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

// describe renders a rejected mutation for the user.
func describe(err error) string {
	var insufficient *core.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Insufficient funds! Current balance: $%s.", insufficient.Balance)
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be greater than zero."
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category cannot be empty."
	case errors.Is(err, core.ErrCategoryTooLong):
		return fmt.Sprintf("Category must be at most %d characters.", core.MaxCategoryLength)
	case errors.Is(err, core.ErrAmountTooLarge):
		return "Amount is too large for this ledger."
	}
	return err.Error()
}
