// Package sqlite implements TransactionStore on an embedded SQLite database
// with schema managed by golang-migrate.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/interfaces"
	"github.com/bobmcallan/wmtb/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Compile-time interface check
var _ interfaces.TransactionStore = (*Store)(nil)

// Store implements interfaces.TransactionStore using SQLite.
type Store struct {
	db     *sql.DB
	logger *common.Logger
	now    func() time.Time
}

// NewStore opens (creating if needed) the database at path and applies
// pending migrations.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage path %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent handlers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Transaction store opened")
	return s, nil
}

func (s *Store) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}
	// m.Close would close s.db through the driver, so only the source is released

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			s.logger.Debug().Msg("No new database migrations to apply")
			return src.Close()
		}
		src.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	s.logger.Info().Msg("Database migrations applied")
	return src.Close()
}

// Insert stores tx for userID. An empty ID gets a UUID and a zero CreatedAt
// gets the current time; both are written back to tx.
func (s *Store) Insert(ctx context.Context, userID string, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now()
	}
	tx.CreatedAt = tx.CreatedAt.UTC()
	if !models.ValidTransactionType(tx.Type) {
		return fmt.Errorf("invalid transaction type %q", tx.Type)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount, description, category, type, raw_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, userID, tx.Amount.String(), tx.Description, tx.Category, string(tx.Type), tx.RawText,
		tx.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Recent returns up to limit transactions for userID, most recent first.
// A non-positive limit uses models.DefaultTransactionsLimit.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = models.DefaultTransactionsLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, description, category, type, raw_text, created_at
		 FROM transactions WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			tx        models.Transaction
			amount    string
			txType    string
			createdAt string
		)
		if err := rows.Scan(&tx.ID, &amount, &tx.Description, &tx.Category, &txType, &tx.RawText, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = models.TransactionType(txType)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			s.logger.Warn().Str("id", tx.ID).Str("amount", amount).Msg("Unreadable stored amount")
			tx.Amount = decimal.Zero
		}
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			tx.CreatedAt = t
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return out, nil
}

// Totals sums amounts for userID split into income and everything else.
// Amounts are summed as decimals rather than with SQL SUM to stay exact.
func (s *Store) Totals(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error) {
	income, outgoing := decimal.Zero, decimal.Zero

	rows, err := s.db.QueryContext(ctx, `SELECT amount, type FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return income, outgoing, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var amount, txType string
		if err := rows.Scan(&amount, &txType); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			continue
		}
		if models.TransactionType(txType) == models.TxIncome {
			income = income.Add(d)
		} else {
			outgoing = outgoing.Add(d)
		}
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to read totals: %w", err)
	}
	return income, outgoing, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
