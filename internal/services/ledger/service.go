// Package ledger implements the reference Ledger Service: it parses free
// text, records transactions and derives balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/interfaces"
	"github.com/bobmcallan/wmtb/internal/models"
)

// Compile-time interface check
var _ interfaces.LedgerService = (*Service)(nil)

var (
	// ErrMissingUser is returned when no user id is supplied.
	ErrMissingUser = errors.New("missing user_id")

	// ErrMissingText is returned when the text is blank.
	ErrMissingText = errors.New("missing text")
)

// Service implements LedgerService
type Service struct {
	store  interfaces.TransactionStore
	parser interfaces.TransactionParser
	logger *common.Logger
}

// NewService creates a new ledger service
func NewService(store interfaces.TransactionStore, parser interfaces.TransactionParser, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		parser: parser,
		logger: logger,
	}
}

// Parse interprets text without recording it
func (s *Service) Parse(text string) models.ParsedTransaction {
	return s.parser.Parse(text)
}

// AddTransaction parses text and stores the result for userID
func (s *Service) AddTransaction(ctx context.Context, userID, text string) (*models.Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingText
	}

	parsed := s.parser.Parse(text)
	tx := &models.Transaction{
		Type:        parsed.Type,
		Amount:      parsed.Amount,
		Category:    parsed.Category,
		Description: parsed.Description,
		RawText:     text,
	}
	if err := s.store.Insert(ctx, userID, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("id", tx.ID).
		Str("type", string(tx.Type)).
		Str("category", tx.Category).
		Str("amount", tx.Amount.String()).
		Msg("Transaction recorded")

	return tx, nil
}

// Balance returns income minus all other transactions for userID
func (s *Service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	income, outgoing, err := s.store.Totals(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute balance: %w", err)
	}
	return income.Sub(outgoing), nil
}

// RecentTransactions returns up to limit transactions, most recent first
func (s *Service) RecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	txs, err := s.store.Recent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// AckMessage is the confirmation returned for a recorded transaction,
// for example "✅ Food: TZS 15,000". The amount is shown without decimals.
func AckMessage(tx *models.Transaction) string {
	// a Caser is stateful and must not be shared between goroutines
	title := cases.Title(language.English).String(tx.Category)
	whole := tx.Amount.RoundBank(0).IntPart()
	return fmt.Sprintf("✅ %s: TZS %s", title, humanize.Comma(whole))
}
