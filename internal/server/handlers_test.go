package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/wmtb/internal/app"
	"github.com/bobmcallan/wmtb/internal/clients/ledger"
	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/models"
	"github.com/bobmcallan/wmtb/internal/services/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "wmtb.db")

	a, err := app.NewAppWithConfig(cfg, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return NewServer(a)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "WMTB Backend", body["service"])
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
}

func TestVersion(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, decode(t, rr), "version")
}

func TestAddTransaction_MissingFields(t *testing.T) {
	srv := newTestServer(t)
	for _, body := range []string{`{"text":"lunch 15000"}`, `{"user_id":"u1"}`, `{"user_id":"u1","text":"  "}`} {
		rr := do(t, srv, http.MethodPost, "/api/transaction", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "Missing user_id or text", decode(t, rr)["error"], body)
	}
}

func TestAddTransaction_InvalidJSON(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/transaction", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddTransaction_RecordsAndAcknowledges(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transaction", `{"user_id":"u1","text":"received salary 100000"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodPost, "/api/transaction", `{"user_id":"u1","text":"lunch 15000"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "✅ Food: TZS 15,000", body["message"])
	assert.Equal(t, float64(85000), body["balance"])

	tx, ok := body["transaction"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "expense", tx["type"])
	assert.Equal(t, float64(15000), tx["amount"])
	assert.Equal(t, "lunch 15000", tx["raw_text"])
	assert.NotEmpty(t, tx["id"])
}

func TestBalanceAndTransactions(t *testing.T) {
	srv := newTestServer(t)
	for _, text := range []string{"received 50000", "lunch 15000", "fuel 20000"} {
		rr := do(t, srv, http.MethodPost, "/api/transaction", `{"user_id":"u1","text":"`+text+`"}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := do(t, srv, http.MethodGet, "/api/balance/u1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(15000), decode(t, rr)["balance"])

	rr = do(t, srv, http.MethodGet, "/api/transactions/u1?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	txs, ok := decode(t, rr)["transactions"].([]interface{})
	require.True(t, ok)
	require.Len(t, txs, 2)
	assert.Equal(t, "fuel 20000", txs[0].(map[string]interface{})["raw_text"])

	rr = do(t, srv, http.MethodGet, "/api/transactions/nobody?limit=abc", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"transactions":[]}`, strings.TrimSpace(rr.Body.String()))
}

func TestParse(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/parse", `{"text":"Lunch TZS 15,000"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(15000), body["amount"])
	assert.Equal(t, "food", body["category"])
	assert.Equal(t, "Lunch", body["description"])

	rr = do(t, srv, http.MethodPost, "/api/parse", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No text provided", decode(t, rr)["error"])

	// parsing does not record anything
	rr = do(t, srv, http.MethodGet, "/api/balance/u1", "")
	assert.Equal(t, float64(0), decode(t, rr)["balance"])
}

func TestRouting_NotFoundAndMethod(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/transaction", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, srv, http.MethodOptions, "/api/transaction", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdown_DisabledInProduction(t *testing.T) {
	srv := newTestServer(t)
	srv.app.Config.Environment = "production"

	rr := do(t, srv, http.MethodPost, "/api/shutdown", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestShutdown_SignalsChannel(t *testing.T) {
	srv := newTestServer(t)
	ch := make(chan struct{}, 1)
	srv.SetShutdownChannel(ch)

	rr := do(t, srv, http.MethodPost, "/api/shutdown", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	<-ch
}

// TestSessionAgainstServer drives the client stack end to end over HTTP.
func TestSessionAgainstServer(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := ledger.NewClient(ledger.WithBaseURL(ts.URL), ledger.WithRateLimit(100))
	c := session.New(client, "demo-user-123")

	ctx := context.Background()
	_, err := c.Submit(ctx, "received salary 100000")
	require.NoError(t, err)

	msg, err := c.Submit(ctx, "lunch 15000")
	require.NoError(t, err)
	assert.Equal(t, models.PendingConfirmed, msg.State)
	assert.Equal(t, "✅ Food: TZS 15,000", msg.Reply)

	require.NoError(t, c.Refresh(ctx))
	snap := c.Snapshot()
	assert.Equal(t, "85000", snap.Balance.String())
	require.Len(t, snap.Transactions, 2)
	assert.Empty(t, snap.Pending)
	require.Len(t, snap.Conversation, 4)
	assert.Equal(t, "✅ income: TZS 100,000", snap.Conversation[0].Text)
	assert.Equal(t, "received salary 100000", snap.Conversation[1].Text)
	assert.Equal(t, "lunch 15000", snap.Conversation[3].Text)
	assert.Equal(t, models.InsufficientData(), snap.Forecast.DaysUntilBroke)
}
