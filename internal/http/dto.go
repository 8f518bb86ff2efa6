package http

import (
	"kesef/internal/app"
	"kesef/internal/core"
)

// SubmitRequest is the JSON form of the entry form. Amount stays a
// string so it goes through the same lenient parsing as the HTML form.
type SubmitRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
}

// TransactionResponse is one ledger row. Amounts are decimal strings;
// an unreadable amount is "NaN".
type TransactionResponse struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	Date          string `json:"date"`
}

type TrendPointResponse struct {
	Label    string `json:"label"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

// StateResponse mirrors what the page shows.
type StateResponse struct {
	View         string                `json:"view"`
	Theme        string                `json:"theme"`
	Balance      string                `json:"balance"`
	Income       string                `json:"income"`
	Expenses     string                `json:"expenses"`
	Count        int                   `json:"count"`
	Trend        []TrendPointResponse  `json:"trend"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ErrorResponse is returned for JSON requests that fail.
type ErrorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

func (r SubmitRequest) form() core.Form {
	return core.Form{
		Description: sanitizeInput(r.Description),
		Amount:      sanitizeInput(r.Amount),
		Kind:        core.ParseKind(r.Type),
		Category:    core.ParseCategory(r.Category),
	}
}

func newStateResponse(s app.State) StateResponse {
	sum := s.Ledger.Summary()
	resp := StateResponse{
		View:         string(s.View),
		Theme:        string(s.Theme),
		Balance:      sum.Balance.String(),
		Income:       sum.Income.String(),
		Expenses:     sum.Expenses.String(),
		Count:        sum.Count,
		Trend:        make([]TrendPointResponse, 0, len(sum.Trend)),
		Transactions: make([]TransactionResponse, 0, sum.Count),
	}
	for _, p := range sum.Trend {
		resp.Trend = append(resp.Trend, TrendPointResponse{
			Label:    p.Label,
			Income:   p.Income.String(),
			Expenses: p.Expenses.String(),
		})
	}
	for _, tx := range s.Ledger.All() {
		resp.Transactions = append(resp.Transactions, TransactionResponse{
			ID:            tx.ID,
			Description:   tx.Description,
			Amount:        tx.Amount.String(),
			Category:      string(tx.Category),
			CategoryLabel: tx.Category.Label(),
			Date:          tx.Date,
		})
	}
	return resp
}
