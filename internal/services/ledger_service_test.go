package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"finance/internal/amqp"
	"finance/internal/core"
	"finance/internal/ledger"
	"finance/internal/log"
	"finance/internal/obs"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TransactionRecordedMessage
	err  error
}

func (f *fakePublisher) PublishTransaction(_ context.Context, msg *amqp.TransactionRecordedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func newService(t *testing.T, pub EventPublisher) (*LedgerService, *obs.Metrics, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: &buf})
	metrics := obs.NewMetrics()
	return NewLedgerService("home", ledger.New(), pub, metrics, logger), metrics, &buf
}

func TestLedgerService_PublishesEveryAppend(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, _ := newService(t, pub)
	ctx := context.Background()

	_, err := svc.RecordIncome(ctx, "Job", core.Cents(100000))
	require.NoError(t, err)
	_, err = svc.RecordExpense(ctx, "Food", core.Cents(20000))
	require.NoError(t, err)
	tx, err := svc.Withdraw(ctx, core.Cents(5000))
	require.NoError(t, err)

	assert.Equal(t, uint64(3), tx.Seq)
	assert.Equal(t, core.Cents(75000), svc.Balance())
	require.Len(t, pub.msgs, 3)
	for i, msg := range pub.msgs {
		assert.Equal(t, "home", msg.LedgerID)
		assert.Equal(t, svc.Session(), msg.Session)
		assert.Equal(t, uint64(i+1), msg.Seq)
	}
	assert.NotEmpty(t, svc.Session())
	other, _, _ := newService(t, nil)
	assert.NotEqual(t, svc.Session(), other.Session(), "every run gets its own session")
	assert.Equal(t, "Withdrawal", pub.msgs[2].Kind)
	assert.Equal(t, core.WithdrawalCategory, pub.msgs[2].Category)
}

func TestLedgerService_RejectedMutationsAreNotPublished(t *testing.T) {
	pub := &fakePublisher{}
	svc, metrics, buf := newService(t, pub)
	ctx := context.Background()

	_, err := svc.RecordIncome(ctx, "Job", core.Cents(1000))
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, core.Cents(1500))
	var insufficient *core.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, core.Cents(1000), insufficient.Balance)

	_, err = svc.RecordExpense(ctx, "  ", core.Cents(10))
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	assert.Len(t, pub.msgs, 1)
	assert.Len(t, svc.Transactions(), 1)
	assert.Contains(t, buf.String(), `"level":"WARN","msg":"Withdrawal rejected"`)
	assert.Contains(t, buf.String(), `"error_type":"insufficient_funds"`)

	expected := `
# HELP finance_withdrawals_rejected_total Withdrawals rejected for insufficient funds.
# TYPE finance_withdrawals_rejected_total counter
finance_withdrawals_rejected_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected),
		"finance_withdrawals_rejected_total"))
}

func TestLedgerService_PublishFailureKeepsAppend(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, metrics, buf := newService(t, pub)

	tx, err := svc.RecordIncome(context.Background(), "Job", core.Cents(500))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tx.Seq)
	assert.Equal(t, core.Cents(500), svc.Balance())
	assert.Contains(t, buf.String(), "Failed to publish transaction event")

	expected := `
# HELP finance_events_published_total Transaction events handed to the broker, by outcome.
# TYPE finance_events_published_total counter
finance_events_published_total{status="error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected),
		"finance_events_published_total"))
}

func TestLedgerService_WithoutPublisherOrMetrics(t *testing.T) {
	svc := NewLedgerService("solo", ledger.New(), nil, nil, nil)

	_, err := svc.RecordIncome(context.Background(), "Gift", core.Cents(250))
	require.NoError(t, err)
	_, err = svc.Withdraw(context.Background(), core.Cents(300))
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Equal(t, "solo", svc.LedgerID())
}

func TestLedgerService_LogsBalanceOfEachAppend(t *testing.T) {
	svc, _, buf := newService(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.RecordIncome(context.Background(), "Job", core.Cents(1))
		}()
	}
	wg.Wait()

	recorded := 0
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry struct {
			Msg     string `json:"msg"`
			Seq     int64  `json:"seq"`
			Balance int64  `json:"balance_cents"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry.Msg != "Transaction recorded" {
			continue
		}
		recorded++
		// every append adds one cent, so the balance after seq n is n
		assert.Equal(t, entry.Seq, entry.Balance, "balance logged for seq %d", entry.Seq)
	}
	assert.Equal(t, 40, recorded)
}
