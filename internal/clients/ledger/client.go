// Package ledger provides a client for the Ledger Service API
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/interfaces"
	"github.com/bobmcallan/wmtb/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:5000"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

var (
	// ErrNetworkFailure wraps failures to reach the service or read its reply.
	ErrNetworkFailure = errors.New("ledger: network failure")

	// ErrInvalidResponse wraps payloads that could not be decoded at all.
	ErrInvalidResponse = errors.New("ledger: invalid response")
)

// Client implements the LedgerClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	limit      int
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTransactionsLimit sets the ?limit= sent when listing transactions (0 = server default)
func WithTransactionsLimit(n int) ClientOption {
	return func(c *Client) {
		c.limit = n
	}
}

// NewClient creates a new Ledger Service client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig creates a client from the [ledger] config section
func NewClientFromConfig(cfg common.LedgerConfig, logger *common.Logger) *Client {
	opts := []ClientOption{
		WithTimeout(cfg.GetTimeout()),
		WithRateLimit(cfg.RateLimit),
		WithTransactionsLimit(cfg.TransactionsLimit),
		WithLogger(logger),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return NewClient(opts...)
}

// APIError represents a non-2xx reply from the Ledger Service
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Ledger API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// do performs a rate-limited request and decodes a JSON reply into result
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", path).Msg("Ledger API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetworkFailure, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrNetworkFailure, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			Endpoint:   path,
		}
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// GetBalance retrieves the user's balance. A missing or null balance reads as 0.
func (c *Client) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var resp balanceResponse
	if err := c.do(ctx, http.MethodGet, "/api/balance/"+url.PathEscape(userID), nil, &resp); err != nil {
		return decimal.Zero, err
	}
	if !resp.Balance.Valid {
		return decimal.Zero, nil
	}
	return resp.Balance.Decimal, nil
}

type balanceResponse struct {
	Balance decimal.NullDecimal `json:"balance"`
}

// GetTransactions retrieves recent transactions, most recent first. Records
// that cannot be decoded are skipped; a missing list reads as empty.
func (c *Client) GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	path := "/api/transactions/" + url.PathEscape(userID)
	if c.limit > 0 {
		path += "?limit=" + strconv.Itoa(c.limit)
	}

	var resp transactionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	transactions := make([]models.Transaction, 0, len(resp.Transactions))
	for i, raw := range resp.Transactions {
		var rec transactionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Warn().Err(err).Int("index", i).Msg("Skipping undecodable transaction record")
			continue
		}
		transactions = append(transactions, rec.toModel())
	}
	return transactions, nil
}

type transactionsResponse struct {
	Transactions []json.RawMessage `json:"transactions"`
}

// transactionRecord is the wire shape of a transaction. Every field is
// tolerant: ids may be numbers, amounts may be quoted or null, and
// timestamps may lack a zone.
type transactionRecord struct {
	ID          recordID            `json:"id"`
	Type        string              `json:"type"`
	Amount      decimal.NullDecimal `json:"amount"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	RawText     *string             `json:"raw_text"`
	CreatedAt   *string             `json:"created_at"`
}

func (r transactionRecord) toModel() models.Transaction {
	tx := models.Transaction{
		ID:          string(r.ID),
		Type:        models.TransactionType(strings.ToLower(strings.TrimSpace(r.Type))),
		Amount:      decimal.Zero,
		Category:    r.Category,
		Description: r.Description,
	}
	if r.Amount.Valid {
		tx.Amount = r.Amount.Decimal
	}
	if r.RawText != nil {
		tx.RawText = *r.RawText
	}
	if r.CreatedAt != nil {
		if t, ok := common.ParseTimestamp(*r.CreatedAt); ok {
			tx.CreatedAt = t
		}
	}
	return tx
}

// recordID accepts string or numeric ids.
type recordID string

func (id *recordID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = recordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = recordID(n.String())
	return nil
}

// SubmitTransaction posts free text to the service. A reply of
// {success:false} is returned as a result, not an error.
func (c *Client) SubmitTransaction(ctx context.Context, userID, text string) (*models.SubmitResult, error) {
	var resp submitResponse
	req := models.SubmitRequest{UserID: userID, Text: text}
	if err := c.do(ctx, http.MethodPost, "/api/transaction", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Bool("success", resp.Success).Str("message", resp.Message).Msg("Transaction submitted")

	return &models.SubmitResult{
		Success: resp.Success,
		Balance: resp.Balance,
		Message: resp.Message,
	}, nil
}

type submitResponse struct {
	Success bool                `json:"success"`
	Balance decimal.NullDecimal `json:"balance"`
	Message string              `json:"message"`
}

// Ensure Client implements LedgerClient
var _ interfaces.LedgerClient = (*Client)(nil)
