package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbank/gdb/internal/models"
)

const testToken = "test-internal-token"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testToken, WithBaseURL(srv.URL))
}

func TestGetPrivilege(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testToken, r.Header.Get("X-Internal-Token"))
		assert.Equal(t, "/api/v1/internal/accounts/1000/privilege", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"account_number": 1000, "privilege": "GOLD"})
	})

	priv, err := client.GetPrivilege(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, models.PrivilegeGold, priv)
}

func TestGetStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/internal/accounts/1000/active", r.URL.Path)
		json.NewEncoder(w).Encode(models.ActiveStatus{Exists: true, Active: true})
	})

	status, err := client.GetStatus(context.Background(), 1000)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.True(t, status.Active)
	assert.False(t, status.Closed)
}

func TestVerifyPin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(map[string]bool{"valid": req["pin"] == "9640"})
	})

	ok, err := client.VerifyPin(context.Background(), 1000, "9640")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.VerifyPin(context.Background(), 1000, "0000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDebitSendsWireAmount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `"100.50"`, string(body["amount"]))
		json.NewEncoder(w).Encode(map[string]any{"account_number": 1000, "balance": "899.50"})
	})

	balance, err := client.Debit(context.Background(), 1000, 10050)
	require.NoError(t, err)
	assert.Equal(t, models.Money(89950), balance)
}

func TestDomainErrorPassthrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code": "INSUFFICIENT_FUNDS",
			"message":    "insufficient funds",
		})
	})

	_, err := client.Debit(context.Background(), 1000, 10050)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Credit(context.Background(), 1000, 1)
	assert.Equal(t, models.CodeServiceUnavailable, models.CodeOf(err))
}

func TestUnreachableServer(t *testing.T) {
	client := NewClient(testToken, WithBaseURL("http://127.0.0.1:1"))
	_, err := client.GetPrivilege(context.Background(), 1000)
	assert.Equal(t, models.CodeServiceUnavailable, models.CodeOf(err))
}
