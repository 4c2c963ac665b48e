package http

import (
	"encoding/json"
	"net/http"

	"finance/internal/core"
	"finance/internal/middleware/trace"
)

// Amounts are rendered as fixed two-decimal strings, with the exact cents
// alongside for clients that do arithmetic.
type amount struct {
	Value string `json:"value"`
	Cents int64  `json:"cents"`
}

func newAmount(m core.Money) amount {
	return amount{Value: m.String(), Cents: m.Cents}
}

type summaryResponse struct {
	Revision        uint64 `json:"revision"`
	TotalIncome     amount `json:"total_income"`
	TotalExpense    amount `json:"total_expense"`
	TotalWithdrawal amount `json:"total_withdrawal"`
	Balance         amount `json:"balance"`
}

func newSummaryResponse(revision uint64, s core.Summary) summaryResponse {
	return summaryResponse{
		Revision:        revision,
		TotalIncome:     newAmount(s.TotalIncome),
		TotalExpense:    newAmount(s.TotalExpense),
		TotalWithdrawal: newAmount(s.TotalWithdrawal),
		Balance:         newAmount(s.Balance),
	}
}

type categoryEntry struct {
	Name   string `json:"name"`
	Amount amount `json:"amount"`
}

// categoriesResponse keeps categories as an array so first-seen order
// survives encoding.
type categoriesResponse struct {
	Revision   uint64          `json:"revision"`
	Categories []categoryEntry `json:"categories"`
}

func newCategoriesResponse(revision uint64, cats []core.CategoryAmount) categoriesResponse {
	out := categoriesResponse{Revision: revision, Categories: make([]categoryEntry, 0, len(cats))}
	for _, c := range cats {
		out.Categories = append(out.Categories, categoryEntry{Name: c.Name, Amount: newAmount(c.Amount)})
	}
	return out
}

type transactionEntry struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type transactionsResponse struct {
	Revision     uint64             `json:"revision"`
	Transactions []transactionEntry `json:"transactions"`
}

func newTransactionsResponse(revision uint64, rows []core.Row) transactionsResponse {
	out := transactionsResponse{Revision: revision, Transactions: make([]transactionEntry, 0, len(rows))}
	for _, r := range rows {
		out.Transactions = append(out.Transactions, transactionEntry{Type: r.Kind, Category: r.Category, Amount: r.Amount})
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "JSON encoding failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", trace.GetRequestID(r.Context()))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
