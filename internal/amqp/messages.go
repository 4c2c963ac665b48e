package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finance/internal/core"

	"github.com/google/uuid"
)

// TransactionRecordedMessage is published after every successful append to a
// ledger. Seq is the transaction's 1-based position in the log of the ledger
// session that recorded it.
type TransactionRecordedMessage struct {
	ID          string    `json:"id"`
	LedgerID    string    `json:"ledger_id"`
	Session     string    `json:"session"`
	Seq         uint64    `json:"seq"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage creates a message for tx with a fresh ID.
func NewTransactionRecordedMessage(ledgerID, session string, tx core.Transaction) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:          uuid.NewString(),
		LedgerID:    ledgerID,
		Session:     session,
		Seq:         tx.Seq,
		Kind:        tx.Kind.String(),
		Category:    tx.Category,
		AmountCents: tx.Amount.Cents,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToTransaction rebuilds and validates the transaction carried by the message.
func (m *TransactionRecordedMessage) ToTransaction() (core.Transaction, error) {
	if m.LedgerID == "" {
		return core.Transaction{}, fmt.Errorf("message %s: missing ledger id", m.ID)
	}
	if m.Session == "" {
		return core.Transaction{}, fmt.Errorf("message %s: missing session", m.ID)
	}
	if m.Seq == 0 {
		return core.Transaction{}, fmt.Errorf("message %s: missing seq", m.ID)
	}
	kind, err := core.ParseKind(m.Kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("message %s: %w", m.ID, err)
	}
	tx := core.Transaction{
		Seq:      m.Seq,
		Kind:     kind,
		Category: m.Category,
		Amount:   core.Cents(m.AmountCents),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("message %s: %w", m.ID, err)
	}
	return tx, nil
}

// TransactionRecordedMessageFromJSON creates a message from JSON bytes
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
