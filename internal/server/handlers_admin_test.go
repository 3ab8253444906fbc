package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestDeposit files a pending deposit and returns its ID.
func (ts *testServer) requestDeposit(token, amount, crypto string) string {
	ts.t.Helper()
	rr := ts.do(http.MethodPost, "/api/deposits", token, map[string]string{
		"amount":      amount,
		"crypto_type": crypto,
	})
	require.Equal(ts.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode(ts.t, rr)["id"].(string)
}

// listIDs collects the "id" of every element of resp[key].
func listIDs(t *testing.T, resp map[string]interface{}, key string) []string {
	t.Helper()
	items, ok := resp[key].([]interface{})
	require.True(t, ok, "missing %s", key)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.(map[string]interface{})["id"].(string))
	}
	return ids
}

func TestAdminDepositQueue(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.register("alice")
	_, bob := ts.register("bob")

	ts.fund(aliceID, alice, "300")
	pendingBTC := ts.requestDeposit(alice, "100", "BTC")
	pendingETH := ts.requestDeposit(bob, "250", "ETH")

	rr := ts.do(http.MethodGet, "/api/admin/deposits?status=pending", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode(t, rr)
	assert.Equal(t, float64(2), resp["count"])
	assert.ElementsMatch(t, []string{pendingBTC, pendingETH}, listIDs(t, resp, "deposits"))

	rr = ts.do(http.MethodGet, "/api/admin/deposits?status=PENDING&crypto=eth", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{pendingETH}, listIDs(t, decode(t, rr), "deposits"))

	rr = ts.do(http.MethodGet, "/api/admin/deposits", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(3), decode(t, rr)["count"])

	today := time.Now().UTC().Format("2006-01-02")
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	rr = ts.do(http.MethodGet, "/api/admin/deposits?from="+today+"&to="+today, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(3), decode(t, rr)["count"])
	rr = ts.do(http.MethodGet, "/api/admin/deposits?to="+yesterday, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(0), decode(t, rr)["count"])

	// approving from the queue takes the deposit out of it
	rr = ts.do(http.MethodPost, "/api/admin/deposits/"+pendingETH+"/approve", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.do(http.MethodGet, "/api/admin/deposits?status=pending", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{pendingBTC}, listIDs(t, decode(t, rr), "deposits"))
}

func TestAdminQueues_Rejections(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.register("alice")

	for _, path := range []string{"/api/admin/deposits", "/api/admin/withdrawals", "/api/admin/stats", "/api/admin/reports"} {
		rr := ts.do(http.MethodGet, path, alice, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code, path)
		rr = ts.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/admin/deposits?status=lost", http.StatusBadRequest},
		{"/api/admin/deposits?crypto=doge", http.StatusBadRequest},
		{"/api/admin/withdrawals?from=yesterday", http.StatusBadRequest},
		{"/api/admin/withdrawals?from=2026-05-02&to=2026-05-01", http.StatusBadRequest},
		{"/api/admin/reports?days=0", http.StatusBadRequest},
		{"/api/admin/reports?days=5000", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := ts.do(http.MethodGet, tt.path, ts.adminToken, nil)
		assert.Equal(t, tt.want, rr.Code, tt.path)
	}

	rr := ts.do(http.MethodPost, "/api/admin/deposits", ts.adminToken, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	rr = ts.do(http.MethodGet, "/api/admin/deposits/dep_1/approve", ts.adminToken, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAdminWithdrawalQueueAndStats(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.register("alice")
	ts.register("bob")

	ts.fund(id, token, "500")
	rr := ts.do(http.MethodPost, "/api/investments", token, map[string]string{"plan_id": "basic", "amount": "500"})
	require.Equal(t, http.StatusCreated, rr.Code)
	invID := decode(t, rr)["id"].(string)
	rr = ts.do(http.MethodPost, "/api/admin/investments/"+invID+"/complete", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	withdraw := map[string]string{"amount": "100", "crypto_type": "BTC", "crypto_address": "bc1-alice"}
	rr = ts.do(http.MethodPost, "/api/withdrawals", token, withdraw)
	require.Equal(t, http.StatusCreated, rr.Code)
	paid := decode(t, rr)["id"].(string)
	rr = ts.do(http.MethodPost, "/api/withdrawals", token, withdraw)
	require.Equal(t, http.StatusCreated, rr.Code)
	waiting := decode(t, rr)["id"].(string)

	rr = ts.do(http.MethodPost, "/api/admin/withdrawals/"+paid+"/approve", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(http.MethodGet, "/api/admin/withdrawals?status=pending", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{waiting}, listIDs(t, decode(t, rr), "withdrawals"))

	rr = ts.do(http.MethodGet, "/api/admin/withdrawals?limit=1", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decode(t, rr)["count"])

	ts.requestDeposit(token, "40", "BTC")

	rr = ts.do(http.MethodGet, "/api/admin/stats", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	stats := decode(t, rr)
	assert.Equal(t, float64(2), stats["total_users"])
	assert.Equal(t, float64(2), stats["new_users_today"])
	assert.Equal(t, "500", stats["approved_deposits"])
	assert.Equal(t, "100", stats["approved_withdrawals"])
	assert.Equal(t, "0", stats["active_invested"])
	assert.Equal(t, float64(1), stats["pending_deposits"])
	assert.Equal(t, float64(1), stats["pending_withdrawals"])
	assert.Len(t, stats["recent_users"].([]interface{}), 2)
	assert.Len(t, stats["recent_deposits"].([]interface{}), 2)
	assert.Len(t, stats["recent_withdrawals"].([]interface{}), 2)

	rr = ts.do(http.MethodGet, "/api/admin/reports?days=3", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	days := decode(t, rr)["days"].([]interface{})
	require.Len(t, days, 3)
	today := days[2].(map[string]interface{})
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), today["date"])
	assert.Equal(t, "500", today["deposits"])
	assert.Equal(t, "100", today["withdrawals"])
	assert.Equal(t, float64(2), today["new_users"])
}

func TestNewServer_LedgerTimeouts(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, readHeaderTimeout, ts.srv.server.ReadHeaderTimeout)
	assert.Equal(t, writeTimeout, ts.srv.server.WriteTimeout)
	assert.Equal(t, maxHeaderBytes, ts.srv.server.MaxHeaderBytes)
	cfg := ts.srv.app.Config.Server
	assert.Equal(t, fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), ts.srv.server.Addr)
}
