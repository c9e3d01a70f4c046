// Package interfaces defines service contracts for WMTB
package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/wmtb/internal/models"
)

// LedgerClient provides access to the Ledger Service
type LedgerClient interface {
	// GetBalance retrieves the user's current balance (missing balance reads as 0)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)

	// GetTransactions retrieves recent transactions, most recent first
	GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error)

	// SubmitTransaction sends free text for the service to parse and record
	SubmitTransaction(ctx context.Context, userID, text string) (*models.SubmitResult, error)
}
