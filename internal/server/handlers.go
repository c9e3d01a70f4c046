package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/wmtb/internal/models"
	"github.com/bobmcallan/wmtb/internal/services/ledger"
)

// transactionResponse is the wire shape of a stored transaction.
type transactionResponse struct {
	ID          string                 `json:"id"`
	Type        models.TransactionType `json:"type"`
	Amount      json.Number            `json:"amount"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	RawText     string                 `json:"raw_text"`
	CreatedAt   string                 `json:"created_at"`
}

func toTransactionResponse(tx models.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      number(tx.Amount),
		Category:    tx.Category,
		Description: tx.Description,
		RawText:     tx.RawText,
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Amount      json.Number            `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	RawText     string                 `json:"raw_text"`
}

type addTransactionResponse struct {
	Success     bool                `json:"success"`
	Transaction transactionResponse `json:"transaction"`
	Balance     json.Number         `json:"balance"`
	Message     string              `json:"message"`
}

// handleParse handles POST /api/parse: interpret text without storing it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		WriteError(w, http.StatusBadRequest, "No text provided")
		return
	}

	parsed := s.app.LedgerService.Parse(req.Text)
	WriteJSON(w, http.StatusOK, parseResponse{
		Amount:      number(parsed.Amount),
		Type:        parsed.Type,
		Category:    parsed.Category,
		Description: parsed.Description,
		RawText:     parsed.RawText,
	})
}

// handleAddTransaction handles POST /api/transaction.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "Missing user_id or text")
		return
	}

	ctx := r.Context()
	tx, err := s.app.LedgerService.AddTransaction(ctx, req.UserID, req.Text)
	if err != nil {
		if errors.Is(err, ledger.ErrMissingUser) || errors.Is(err, ledger.ErrMissingText) {
			WriteError(w, http.StatusBadRequest, "Missing user_id or text")
			return
		}
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to add transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to add transaction")
		return
	}

	balance, err := s.app.LedgerService.Balance(ctx, req.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to compute balance")
		WriteError(w, http.StatusInternalServerError, "Failed to compute balance")
		return
	}

	WriteJSON(w, http.StatusOK, addTransactionResponse{
		Success:     true,
		Transaction: toTransactionResponse(*tx),
		Balance:     number(balance),
		Message:     ledger.AckMessage(tx),
	})
}

// handleBalance handles GET /api/balance/{userID}.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	balance, err := s.app.LedgerService.Balance(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to compute balance")
		WriteError(w, http.StatusInternalServerError, "Failed to compute balance")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]json.Number{"balance": number(balance)})
}

// handleTransactions handles GET /api/transactions/{userID}?limit=N.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := QueryInt(r, "limit", models.DefaultTransactionsLimit)

	txs, err := s.app.LedgerService.RecentTransactions(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	WriteJSON(w, http.StatusOK, map[string][]transactionResponse{"transactions": out})
}
