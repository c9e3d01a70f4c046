package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes the direction of a ledger transaction.
type TransactionType string

const (
	TxIncome  TransactionType = "income"
	TxExpense TransactionType = "expense"
	// TxTransfer is accepted by the backend schema but moves no money in or out.
	TxTransfer TransactionType = "transfer"
)

// validTransactionTypes lists all accepted transaction types.
var validTransactionTypes = map[TransactionType]bool{
	TxIncome:   true,
	TxExpense:  true,
	TxTransfer: true,
}

// ValidTransactionType returns true if t is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	return validTransactionTypes[t]
}

// Transaction is a server-confirmed ledger record. Immutable once fetched.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	RawText     string          `json:"raw_text,omitempty"`
	CreatedAt   time.Time       `json:"created_at"` // zero when missing or unparseable
}

// Text returns what the user originally typed, falling back to the parsed description.
func (t Transaction) Text() string {
	if t.RawText != "" {
		return t.RawText
	}
	return t.Description
}

// SignedAmount returns +amount for income, -amount for expense and zero for
// any other type.
func (t Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case TxIncome:
		return t.Amount
	case TxExpense:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}
