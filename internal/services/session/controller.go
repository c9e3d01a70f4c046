// Package session owns the canonical ledger state on the client: it fetches
// balance and transactions, submits new text, and publishes immutable
// snapshots carrying the forecast and the rendered conversation.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/wmtb/internal/clients/ledger"
	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/interfaces"
	"github.com/bobmcallan/wmtb/internal/models"
	"github.com/bobmcallan/wmtb/internal/services/conversation"
	"github.com/bobmcallan/wmtb/internal/services/forecast"
)

var (
	// ErrEmptyMessage is returned when the submitted text is blank.
	ErrEmptyMessage = errors.New("session: empty message")

	// ErrSubmitInFlight is returned while a previous submission is still running.
	ErrSubmitInFlight = errors.New("session: submission already in progress")
)

// Snapshot is an immutable view of the session state. Callers must not
// modify the slices it carries.
type Snapshot struct {
	Version      uint64
	Balance      decimal.Decimal
	Transactions []models.Transaction
	Pending      []models.PendingMessage
	Conversation []models.ConversationEntry
	Forecast     models.ForecastResult
	UpdatedAt    time.Time
}

// pendingItem pairs a pending message with the request sequence at which it
// settled. Only fetches issued after that point can supersede it.
type pendingItem struct {
	msg        models.PendingMessage
	settledSeq uint64
}

// Controller drives the two engines from Ledger Service data.
type Controller struct {
	client interfaces.LedgerClient
	userID string
	format conversation.Format
	now    func() time.Time
	logger *common.Logger

	seq        atomic.Uint64
	submitting atomic.Bool

	mu           sync.Mutex
	balance      decimal.Decimal
	balanceSeq   uint64
	transactions []models.Transaction
	txSeq        uint64
	pending      []pendingItem
	current      Snapshot
	updates      chan Snapshot
}

// Option configures the controller
type Option func(*Controller)

// WithFormat sets currency and timezone used for rendering
func WithFormat(f conversation.Format) Option {
	return func(c *Controller) {
		c.format = f
	}
}

// WithClock injects the time source used for timestamps and the weekly series
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller for one user.
func New(client interfaces.LedgerClient, userID string, opts ...Option) *Controller {
	c := &Controller{
		client:  client,
		userID:  userID,
		format:  conversation.DefaultFormat(),
		now:     time.Now,
		logger:  common.NewSilentLogger(),
		balance: decimal.Zero,
		updates: make(chan Snapshot, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	c.current = c.buildLocked()
	c.mu.Unlock()
	return c
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Updates delivers every published snapshot. When the reader lags, older
// undelivered snapshots are replaced by the newest one.
func (c *Controller) Updates() <-chan Snapshot {
	return c.updates
}

// Refresh fetches balance and transactions concurrently. Failures leave the
// previous state in place and are returned joined.
func (c *Controller) Refresh(ctx context.Context) error {
	var wg sync.WaitGroup
	var balanceErr, txErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		balanceErr = c.RefreshBalance(ctx)
	}()
	go func() {
		defer wg.Done()
		txErr = c.RefreshTransactions(ctx)
	}()
	wg.Wait()

	return errors.Join(balanceErr, txErr)
}

// RefreshBalance fetches the balance. A response older than one already
// applied is discarded.
func (c *Controller) RefreshBalance(ctx context.Context) error {
	seq := c.seq.Add(1)
	balance, err := c.client.GetBalance(ctx, c.userID)
	if err != nil {
		c.logger.Warn().Err(err).Uint64("seq", seq).Msg("Balance fetch failed")
		return fmt.Errorf("fetch balance: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applyBalanceLocked(seq, balance) {
		c.publishLocked()
	}
	return nil
}

// RefreshTransactions fetches the transaction list and replaces the
// canonical list wholesale. Settled pending messages are dropped once a
// fetch issued after they settled is applied.
func (c *Controller) RefreshTransactions(ctx context.Context) error {
	seq := c.seq.Add(1)
	transactions, err := c.client.GetTransactions(ctx, c.userID)
	if err != nil {
		c.logger.Warn().Err(err).Uint64("seq", seq).Msg("Transactions fetch failed")
		return fmt.Errorf("fetch transactions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.txSeq {
		c.logger.Debug().Uint64("seq", seq).Uint64("applied", c.txSeq).Msg("Discarding stale transactions response")
		return nil
	}
	c.txSeq = seq
	c.transactions = append([]models.Transaction(nil), transactions...)

	kept := c.pending[:0:0]
	for _, item := range c.pending {
		if item.msg.State == models.PendingSubmitting || item.settledSeq >= seq {
			kept = append(kept, item)
		}
	}
	c.pending = kept

	c.publishLocked()
	return nil
}

// Submit sends text to the Ledger Service. The user entry is published
// before the request is made. Failures become a reply entry on the returned
// message rather than an error; only blank text and overlapping submissions
// are rejected. The balance only changes when the service returns one.
func (c *Controller) Submit(ctx context.Context, text string) (models.PendingMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.PendingMessage{}, ErrEmptyMessage
	}
	if !c.submitting.CompareAndSwap(false, true) {
		return models.PendingMessage{}, ErrSubmitInFlight
	}
	defer c.submitting.Store(false)

	msg := conversation.NewPending(text, c.now())
	c.mu.Lock()
	c.pending = append(c.pending, pendingItem{msg: msg})
	c.publishLocked()
	c.mu.Unlock()

	seq := c.seq.Add(1)
	res, err := c.client.SubmitTransaction(ctx, c.userID, text)

	var balance decimal.NullDecimal
	switch {
	case err != nil:
		reply := conversation.NetworkErrorReply
		var apiErr *ledger.APIError
		if errors.As(err, &apiErr) {
			reply = conversation.ErrorReply
		}
		c.logger.Warn().Err(err).Str("pending_id", msg.ID).Msg("Transaction submission failed")
		msg = conversation.Fail(msg, reply, c.now())
	case res == nil || !res.Success:
		c.logger.Info().Str("pending_id", msg.ID).Msg("Ledger Service rejected transaction")
		msg = conversation.Fail(msg, conversation.ErrorReply, c.now())
	default:
		reply := res.Message
		if strings.TrimSpace(reply) == "" {
			reply = conversation.RecordedReply
		}
		msg = conversation.Confirm(msg, reply, c.now())
		balance = res.Balance
	}

	c.mu.Lock()
	c.settleLocked(msg, c.seq.Add(1))
	if balance.Valid {
		c.applyBalanceLocked(seq, balance.Decimal)
	}
	c.publishLocked()
	c.mu.Unlock()

	if msg.State == models.PendingConfirmed {
		if rerr := c.RefreshTransactions(ctx); rerr != nil {
			c.logger.Warn().Err(rerr).Msg("Refresh after submission failed")
		}
	}
	return msg, nil
}

// applyBalanceLocked stores balance if seq is newer than the last applied one.
func (c *Controller) applyBalanceLocked(seq uint64, balance decimal.Decimal) bool {
	if seq <= c.balanceSeq {
		c.logger.Debug().Uint64("seq", seq).Uint64("applied", c.balanceSeq).Msg("Discarding stale balance")
		return false
	}
	c.balanceSeq = seq
	c.balance = balance
	return true
}

func (c *Controller) settleLocked(msg models.PendingMessage, seq uint64) {
	for i := range c.pending {
		if c.pending[i].msg.ID == msg.ID {
			c.pending[i] = pendingItem{msg: msg, settledSeq: seq}
			return
		}
	}
}

func (c *Controller) buildLocked() Snapshot {
	pending := make([]models.PendingMessage, len(c.pending))
	for i, item := range c.pending {
		pending[i] = item.msg
	}

	confirmed := conversation.Reconcile(c.transactions, c.format)
	now := c.now()

	return Snapshot{
		Version:      c.current.Version + 1,
		Balance:      c.balance,
		Transactions: c.transactions,
		Pending:      pending,
		Conversation: conversation.Compose(confirmed, pending, c.format),
		Forecast:     forecast.Compute(c.transactions, c.balance, now, c.format.Location),
		UpdatedAt:    now,
	}
}

func (c *Controller) publishLocked() {
	snap := c.buildLocked()
	c.current = snap

	select {
	case c.updates <- snap:
	default:
		// reader is behind: replace the undelivered snapshot
		select {
		case <-c.updates:
		default:
		}
		c.updates <- snap
	}
}
