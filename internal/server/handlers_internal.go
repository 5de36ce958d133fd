package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gdbank/gdb/internal/models"
)

const internalPrefix = "/api/v1/internal/accounts/"

// routeInternalAccounts dispatches the privileged S2S surface. The internal
// token was already checked in the middleware.
func (s *Server) routeInternalAccounts(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, internalPrefix)
	parts := strings.SplitN(rest, "/", 2)

	number, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || number <= 0 {
		WriteError(w, http.StatusNotFound, models.CodeNotFound, "unknown account")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		s.handleInternalGet(w, r, number)
	case "privilege":
		s.handleInternalPrivilege(w, r, number)
	case "active":
		s.handleInternalActive(w, r, number)
	case "verify-pin":
		s.handleInternalVerifyPin(w, r, number)
	case "debit":
		s.handleInternalBalance(w, r, number, true)
	case "credit":
		s.handleInternalBalance(w, r, number, false)
	default:
		WriteError(w, http.StatusNotFound, models.CodeNotFound, "unknown resource")
	}
}

// handleInternalGet handles GET /api/v1/internal/accounts/{n}.
func (s *Server) handleInternalGet(w http.ResponseWriter, r *http.Request, number int64) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	acct, err := s.app.Accounts.Get(r.Context(), number)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, acct)
}

type privilegeResponse struct {
	AccountNumber int64            `json:"account_number"`
	Privilege     models.Privilege `json:"privilege"`
}

// handleInternalPrivilege handles GET /api/v1/internal/accounts/{n}/privilege.
func (s *Server) handleInternalPrivilege(w http.ResponseWriter, r *http.Request, number int64) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	priv, err := s.app.Accounts.Privilege(r.Context(), number)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, privilegeResponse{AccountNumber: number, Privilege: priv})
}

// handleInternalActive handles GET /api/v1/internal/accounts/{n}/active.
// A missing account is a 200 with exists=false, not a 404.
func (s *Server) handleInternalActive(w http.ResponseWriter, r *http.Request, number int64) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	status, err := s.app.Accounts.Status(r.Context(), number)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

type verifyPinRequest struct {
	Pin string `json:"pin"`
}

type verifyPinResponse struct {
	Valid bool `json:"valid"`
}

// handleInternalVerifyPin handles POST /api/v1/internal/accounts/{n}/verify-pin.
// The response never distinguishes a wrong PIN from an unknown account.
func (s *Server) handleInternalVerifyPin(w http.ResponseWriter, r *http.Request, number int64) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req verifyPinRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	valid, err := s.app.Accounts.VerifyPin(r.Context(), number, req.Pin)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, verifyPinResponse{Valid: valid})
}

type balanceRequest struct {
	Amount models.Money `json:"amount"`
}

type balanceResponse struct {
	AccountNumber int64        `json:"account_number"`
	Balance       models.Money `json:"balance"`
}

// handleInternalBalance handles POST /api/v1/internal/accounts/{n}/debit and
// /credit, the only two ways any balance ever changes.
func (s *Server) handleInternalBalance(w http.ResponseWriter, r *http.Request, number int64, debit bool) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req balanceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	var balance models.Money
	var err error
	if debit {
		balance, err = s.app.Accounts.Debit(r.Context(), number, req.Amount)
	} else {
		balance, err = s.app.Accounts.Credit(r.Context(), number, req.Amount)
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, balanceResponse{AccountNumber: number, Balance: balance})
}
