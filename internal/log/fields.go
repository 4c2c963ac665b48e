package log

import "finance/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldLedgerID    = "ledger_id"
	FieldSession     = "session"
	FieldSeq         = "seq"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldBalance     = "balance_cents"
	FieldRevision    = "revision"
	FieldRef         = "ref"
	FieldSink        = "sink"
	FieldMessageID   = "message_id"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentReport   = "report"
	ComponentExport   = "export"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentSheets   = "sheets"
	ComponentCLI      = "cli"
	ComponentArchiver = "archiver"
	ComponentHTTP     = "http"
)

// Operations defines standard operation names
const (
	OpRecordIncome  = "record_income"
	OpRecordExpense = "record_expense"
	OpWithdraw      = "withdraw"
	OpExport        = "export"
	OpArchive       = "archive"
	OpPublish       = "publish"
	OpParse         = "parse"
	OpRender        = "render"
	OpStartup       = "startup"
	OpShutdown      = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation        = "validation_error"
	ErrorTypeInsufficientFunds = "insufficient_funds"
	ErrorTypeConfiguration     = "configuration_error"
	ErrorTypeDatabase          = "database_error"
	ErrorTypeNetwork           = "network_error"
	ErrorTypeInternal          = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(tx core.Transaction) LogFields {
	f[FieldSeq] = tx.Seq
	f[FieldKind] = tx.Kind.String()
	f[FieldCategory] = tx.Category
	f[FieldAmountCents] = tx.Amount.Cents
	return f
}

// WithBalance adds the balance in cents
func (f LogFields) WithBalance(m core.Money) LogFields {
	f[FieldBalance] = m.Cents
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
