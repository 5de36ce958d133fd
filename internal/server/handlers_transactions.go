package server

import (
	"net/http"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

// authorizeAccount lets staff operate on any account and customers only on
// accounts they own. Ownership is resolved through the privileged client.
func (s *Server) authorizeAccount(w http.ResponseWriter, r *http.Request, p *common.Principal, account int64) bool {
	if p.IsStaff() {
		return true
	}
	acct, err := s.app.AccountsClient.Get(r.Context(), account)
	if err != nil {
		WriteDomainError(w, err)
		return false
	}
	if acct.OwnerID == "" || acct.OwnerID != p.Subject {
		WriteError(w, http.StatusForbidden, models.CodeForbidden, "not your account")
		return false
	}
	return true
}

type depositRequest struct {
	AccountNumber int64        `json:"account_number"`
	Amount        models.Money `json:"amount"`
}

// handleDeposit handles POST /api/v1/deposits.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req depositRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !s.authorizeAccount(w, r, p, req.AccountNumber) {
		return
	}

	result, err := s.app.Transactions.Deposit(r.Context(), req.AccountNumber, req.Amount)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

type withdrawRequest struct {
	AccountNumber int64        `json:"account_number"`
	Amount        models.Money `json:"amount"`
	Pin           string       `json:"pin"`
}

// handleWithdraw handles POST /api/v1/withdrawals.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !s.authorizeAccount(w, r, p, req.AccountNumber) {
		return
	}

	result, err := s.app.Transactions.Withdraw(r.Context(), req.AccountNumber, req.Amount, req.Pin)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

type transferRequest struct {
	FromAccount int64               `json:"from_account"`
	ToAccount   int64               `json:"to_account"`
	Amount      models.Money        `json:"amount"`
	Mode        models.TransferMode `json:"mode"`
	Pin         string              `json:"pin"`
}

// handleTransfer handles POST /api/v1/transfers. Customers may only move
// money out of their own account.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !s.authorizeAccount(w, r, p, req.FromAccount) {
		return
	}

	result, err := s.app.Transactions.Transfer(r.Context(), interfaces.TransferInput{
		From:   req.FromAccount,
		To:     req.ToAccount,
		Amount: req.Amount,
		Mode:   req.Mode,
		Pin:    req.Pin,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

// handleTransferLimits handles GET /api/v1/transfer-limits/{n}.
func (s *Server) handleTransferLimits(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	number, ok := AccountParam(w, r, "/api/v1/transfer-limits/", "")
	if !ok {
		return
	}
	if !s.authorizeAccount(w, r, p, number) {
		return
	}

	limits, err := s.app.Transactions.Limits(r.Context(), number)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, limits)
}

// handleTransactionLogs handles GET /api/v1/transaction-logs/{n}.
func (s *Server) handleTransactionLogs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	number, ok := AccountParam(w, r, "/api/v1/transaction-logs/", "")
	if !ok {
		return
	}
	if !s.authorizeAccount(w, r, p, number) {
		return
	}

	entries, err := s.app.Transactions.Logs(r.Context(), number, queryLimit(r))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []models.TransactionEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}
