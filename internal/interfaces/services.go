// Package interfaces defines service contracts for WMTB
package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/wmtb/internal/models"
)

// TransactionParser interprets free text as a transaction
type TransactionParser interface {
	Parse(text string) models.ParsedTransaction
}

// LedgerService is the reference Ledger Service behind the REST API
type LedgerService interface {
	// Parse interprets text without recording anything
	Parse(text string) models.ParsedTransaction

	// AddTransaction parses and records text, returning the stored transaction
	AddTransaction(ctx context.Context, userID, text string) (*models.Transaction, error)

	// Balance returns income minus everything else for a user
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)

	// RecentTransactions returns up to limit transactions, most recent first
	RecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}
