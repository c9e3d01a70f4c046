package models

import "github.com/shopspring/decimal"

// DefaultTransactionsLimit is the page size the Ledger Service uses when none is given.
const DefaultTransactionsLimit = 50

// SubmitRequest is the body of POST /api/transaction.
type SubmitRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// SubmitResult is the client-side view of a submission outcome.
// Balance is only valid when the server returned one.
type SubmitResult struct {
	Success bool
	Balance decimal.NullDecimal
	Message string
}

// ParsedTransaction is the Ledger Service's interpretation of free text.
type ParsedTransaction struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	RawText     string          `json:"raw_text"`
}
