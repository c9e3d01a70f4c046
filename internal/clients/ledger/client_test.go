package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/wmtb/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(append([]ClientOption{WithBaseURL(srv.URL), WithRateLimit(1000)}, opts...)...)
}

func TestGetBalance_ParsesResponse(t *testing.T) {
	var capturedPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"balance": 35000.5}`))
	})

	balance, err := client.GetBalance(context.Background(), "demo-user-123")
	require.NoError(t, err)
	assert.Equal(t, "/api/balance/demo-user-123", capturedPath)
	assert.Equal(t, "35000.5", balance.String())
}

func TestGetBalance_MissingDefaultsToZero(t *testing.T) {
	for _, body := range []string{`{}`, `{"balance": null}`} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		balance, err := client.GetBalance(context.Background(), "u")
		require.NoError(t, err, body)
		assert.True(t, balance.IsZero(), body)
	}
}

func TestGetBalance_MalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})

	_, err := client.GetBalance(context.Background(), "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
	assert.False(t, errors.Is(err, ErrNetworkFailure))
}

func TestGetBalance_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := client.GetBalance(context.Background(), "u")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestGetBalance_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(WithBaseURL(url), WithTimeout(time.Second))
	_, err := client.GetBalance(context.Background(), "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetworkFailure))
}

func TestGetTransactions_TolerantDecoding(t *testing.T) {
	body := `{"transactions": [
		{"id": "a1", "type": "expense", "amount": 15000, "category": "food",
		 "description": "Lunch", "raw_text": "lunch 15000", "created_at": "2026-10-19T10:00:00.123456"},
		{"id": 2, "type": "Income", "amount": "50000.00", "category": "income",
		 "description": "Salary", "created_at": "2026-10-18T08:00:00+03:00"},
		{"id": "bad", "amount": {"nested": true}},
		{"id": "c3", "type": "expense", "amount": null, "category": "other",
		 "description": "Mystery", "created_at": "yesterday"}
	]}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	txs, err := client.GetTransactions(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "a1", txs[0].ID)
	assert.Equal(t, models.TxExpense, txs[0].Type)
	assert.Equal(t, "15000", txs[0].Amount.String())
	assert.Equal(t, "lunch 15000", txs[0].Text())
	assert.True(t, txs[0].CreatedAt.Equal(time.Date(2026, 10, 19, 10, 0, 0, 123456000, time.UTC)))

	assert.Equal(t, "2", txs[1].ID)
	assert.Equal(t, models.TxIncome, txs[1].Type)
	assert.True(t, txs[1].Amount.Equal(txs[1].Amount.Truncate(0)))
	assert.Equal(t, "Salary", txs[1].Text())
	assert.True(t, txs[1].CreatedAt.Equal(time.Date(2026, 10, 18, 5, 0, 0, 0, time.UTC)))

	assert.Equal(t, "c3", txs[2].ID)
	assert.True(t, txs[2].Amount.IsZero())
	assert.True(t, txs[2].CreatedAt.IsZero())
}

func TestGetTransactions_MissingListIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	txs, err := client.GetTransactions(context.Background(), "u")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestGetTransactions_SendsLimit(t *testing.T) {
	var capturedQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.RawQuery
		w.Write([]byte(`{"transactions": []}`))
	}, WithTransactionsLimit(20))

	_, err := client.GetTransactions(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "limit=20", capturedQuery)
}

func TestSubmitTransaction_Success(t *testing.T) {
	var got models.SubmitRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/transaction", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success": true, "balance": 85000, "message": "✅ Food: TZS 15,000"}`))
	})

	res, err := client.SubmitTransaction(context.Background(), "demo-user-123", "lunch 15000")
	require.NoError(t, err)
	assert.Equal(t, models.SubmitRequest{UserID: "demo-user-123", Text: "lunch 15000"}, got)
	assert.True(t, res.Success)
	require.True(t, res.Balance.Valid)
	assert.Equal(t, "85000", res.Balance.Decimal.String())
	assert.Equal(t, "✅ Food: TZS 15,000", res.Message)
}

func TestSubmitTransaction_UnsuccessfulIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	})

	res, err := client.SubmitTransaction(context.Background(), "u", "???")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, res.Balance.Valid)
}
