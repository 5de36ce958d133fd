package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbank/gdb/internal/app"
	"github.com/gdbank/gdb/internal/auth"
	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

// mockTransactionService implements interfaces.TransactionService with
// canned outcomes keyed by the PIN and amount.
type mockTransactionService struct{}

var _ interfaces.TransactionService = (*mockTransactionService)(nil)

func result(from, to int64, amount models.Money, mode models.TransferMode, balance models.Money) *interfaces.TransactionResult {
	return &interfaces.TransactionResult{
		Transfer: &models.FundTransfer{ID: "ft-1", FromAccount: from, ToAccount: to,
			Amount: amount, Mode: mode, At: time.Now()},
		Balance: balance,
	}
}

func (m *mockTransactionService) Deposit(_ context.Context, account int64, amount models.Money) (*interfaces.TransactionResult, error) {
	if amount <= 0 {
		return nil, models.NewError(models.CodeValidation, "amount must be positive")
	}
	return result(models.SentinelAccount, account, amount, models.ModeNEFT, amount), nil
}

func (m *mockTransactionService) Withdraw(_ context.Context, account int64, amount models.Money, pin string) (*interfaces.TransactionResult, error) {
	if pin != "9640" {
		return nil, models.ErrInvalidPin
	}
	if amount > 500000 {
		return nil, models.ErrInsufficientFunds
	}
	return result(account, models.SentinelAccount, amount, models.ModeNEFT, 500000-amount), nil
}

func (m *mockTransactionService) Transfer(_ context.Context, in interfaces.TransferInput) (*interfaces.TransactionResult, error) {
	if in.From == in.To {
		return nil, models.NewError(models.CodeSameAccount, "source and destination accounts must differ")
	}
	if in.Amount > 500000 {
		return nil, models.NewError(models.CodeDailyLimitExceeded, "daily amount limit exceeded")
	}
	return result(in.From, in.To, in.Amount, in.Mode, 500000-in.Amount), nil
}

func (m *mockTransactionService) Limits(_ context.Context, account int64) (*models.TransferLimits, error) {
	if account != 1000 {
		return nil, models.ErrNotFound
	}
	return &models.TransferLimits{AccountNumber: account, Privilege: models.PrivilegeGold,
		CapAmount: 50000000, CapCount: 20, RemainingAmount: 50000000, RemainingCount: 20}, nil
}

func (m *mockTransactionService) Logs(_ context.Context, account int64, _ int) ([]models.TransactionEntry, error) {
	if account != 1000 {
		return nil, models.ErrNotFound
	}
	return []models.TransactionEntry{}, nil
}

// ownerClient implements interfaces.AccountsClient for ownership checks only.
type ownerClient struct {
	owners map[int64]string
}

var _ interfaces.AccountsClient = (*ownerClient)(nil)

func (c *ownerClient) Get(_ context.Context, account int64) (*models.Account, error) {
	owner, ok := c.owners[account]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.Account{AccountNumber: account, OwnerID: owner}, nil
}

func (c *ownerClient) GetPrivilege(context.Context, int64) (models.Privilege, error) {
	return models.PrivilegeGold, nil
}

func (c *ownerClient) GetStatus(_ context.Context, account int64) (models.ActiveStatus, error) {
	_, ok := c.owners[account]
	return models.ActiveStatus{Exists: ok, Active: ok}, nil
}

func (c *ownerClient) VerifyPin(context.Context, int64, string) (bool, error) { return true, nil }

func (c *ownerClient) Debit(context.Context, int64, models.Money) (models.Money, error) {
	return 0, nil
}

func (c *ownerClient) Credit(context.Context, int64, models.Money) (models.Money, error) {
	return 0, nil
}

func newTransactionsServer(t *testing.T) *Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = testSecret
	cfg.Auth.InternalToken = testInternalToken

	a := &app.App{
		Config:         cfg,
		Logger:         common.NewSilentLogger(),
		Verifier:       auth.NewVerifier(testSecret, nil, time.Second),
		StartupTime:    time.Now(),
		Transactions:   &mockTransactionService{},
		AccountsClient: &ownerClient{owners: map[int64]string{1000: "cust-1", 1001: "cust-2"}},
	}
	return NewServer(a)
}

func TestDeposit(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "teller-1", common.RoleTeller)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/deposits", token,
		`{"account_number":1000,"amount":"100.00"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res interfaces.TransactionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "100.00", res.Balance.String())
	assert.Equal(t, int64(1000), res.Transfer.ToAccount)
}

func TestDepositRejectsBadAmounts(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "teller-1", common.RoleTeller)

	for _, amount := range []string{`"0.001"`, `"abc"`, `100`} {
		w := doRequest(t, srv, http.MethodPost, "/api/v1/deposits", token,
			`{"account_number":1000,"amount":`+amount+`}`)
		assert.Contains(t, []int{http.StatusBadRequest, http.StatusUnprocessableEntity}, w.Code,
			"amount %s must be rejected", amount)
	}

	// Zero parses but the service rejects it.
	w := doRequest(t, srv, http.MethodPost, "/api/v1/deposits", token,
		`{"account_number":1000,"amount":"0.00"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION", errorCode(t, w))
}

func TestDepositCustomerOwnership(t *testing.T) {
	srv := newTransactionsServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/deposits", mintToken(t, "cust-1", common.RoleCustomer),
		`{"account_number":1000,"amount":"100.00"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/v1/deposits", mintToken(t, "cust-1", common.RoleCustomer),
		`{"account_number":1001,"amount":"100.00"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWithdrawWrongPin(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "cust-1", common.RoleCustomer)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/withdrawals", token,
		`{"account_number":1000,"amount":"100.00","pin":"0000"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_PIN", errorCode(t, w))
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "teller-1", common.RoleTeller)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/withdrawals", token,
		`{"account_number":1000,"amount":"9999.00","pin":"9640"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", errorCode(t, w))
}

func TestTransfer(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "cust-1", common.RoleCustomer)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/transfers", token,
		`{"from_account":1000,"to_account":1001,"amount":"250.00","mode":"IMPS","pin":"9640"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res interfaces.TransactionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, models.ModeIMPS, res.Transfer.Mode)
}

func TestTransferSameAccount(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "teller-1", common.RoleTeller)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/transfers", token,
		`{"from_account":1000,"to_account":1000,"amount":"250.00","mode":"NEFT","pin":"9640"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SAME_ACCOUNT", errorCode(t, w))
}

func TestTransferDailyLimit(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "teller-1", common.RoleTeller)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/transfers", token,
		`{"from_account":1000,"to_account":1001,"amount":"99999.00","mode":"NEFT","pin":"9640"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DAILY_LIMIT_EXCEEDED", errorCode(t, w))
}

func TestTransferCustomerMustOwnSource(t *testing.T) {
	srv := newTransactionsServer(t)
	token := mintToken(t, "cust-2", common.RoleCustomer)

	w := doRequest(t, srv, http.MethodPost, "/api/v1/transfers", token,
		`{"from_account":1000,"to_account":1001,"amount":"250.00","mode":"NEFT","pin":"9640"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTransferLimits(t *testing.T) {
	srv := newTransactionsServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/v1/transfer-limits/1000", mintToken(t, "teller-1", common.RoleTeller), "")
	require.Equal(t, http.StatusOK, w.Code)

	var limits models.TransferLimits
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &limits))
	assert.Equal(t, models.PrivilegeGold, limits.Privilege)

	// Non-numeric account segment is a 404.
	w = doRequest(t, srv, http.MethodGet, "/api/v1/transfer-limits/abc", mintToken(t, "teller-1", common.RoleTeller), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionLogs(t *testing.T) {
	srv := newTransactionsServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/v1/transaction-logs/1000", mintToken(t, "cust-1", common.RoleCustomer), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doRequest(t, srv, http.MethodGet, "/api/v1/transaction-logs/1001", mintToken(t, "cust-1", common.RoleCustomer), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
