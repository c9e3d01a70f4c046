// Package interfaces defines service contracts for WMTB
package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/wmtb/internal/models"
)

// TransactionStore persists ledger transactions for the reference Ledger Service
type TransactionStore interface {
	// Insert stores a transaction for a user; ID and CreatedAt are assigned when empty
	Insert(ctx context.Context, userID string, tx *models.Transaction) error

	// Recent returns up to limit transactions, most recent first
	Recent(ctx context.Context, userID string, limit int) ([]models.Transaction, error)

	// Totals returns the summed income and the summed non-income amounts for a user
	Totals(ctx context.Context, userID string) (income, outgoing decimal.Decimal, err error)

	// Lifecycle
	Close() error
}
