package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"finance/internal/core"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestJSONLoggerCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentLedger, Output: &buf})

	tx := core.Transaction{Seq: 3, Kind: core.Expense, Category: "Food", Amount: core.Cents(1250)}
	fields := NewFields().WithOperation(OpRecordExpense).WithTransaction(tx).WithError(errors.New("x"))
	logger.Info("Transaction recorded", fields.ToSlice()...)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentLedger || entry[FieldCategory] != "Food" ||
		entry[FieldAmountCents] != 1250.0 || entry[FieldOperation] != OpRecordExpense || entry[FieldError] != "x" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Component: ComponentApp, Output: &buf})
	logger.WithComponent(ComponentCLI).Info("hello")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=cli") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := New(DefaultConfig())
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected logger from context")
	}
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", got)
	}
}
