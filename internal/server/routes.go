package server

import (
	"net/http"
	"time"

	"github.com/gdbank/gdb/internal/common"
)

// registerRoutes sets up the routes for whichever service the app holds.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	if s.app.Accounts != nil {
		// Accounts public surface
		mux.HandleFunc("/api/v1/accounts/savings", s.handleCreateSavings)
		mux.HandleFunc("/api/v1/accounts/current", s.handleCreateCurrent)
		mux.HandleFunc("/api/v1/accounts/", s.routeAccounts)

		// Internal surface, called only by the Transactions service
		mux.HandleFunc("/api/v1/internal/accounts/", s.routeInternalAccounts)
	}

	if s.app.Transactions != nil {
		mux.HandleFunc("/api/v1/deposits", s.handleDeposit)
		mux.HandleFunc("/api/v1/withdrawals", s.handleWithdraw)
		mux.HandleFunc("/api/v1/transfers", s.handleTransfer)
		mux.HandleFunc("/api/v1/transfer-limits/", s.handleTransferLimits)
		mux.HandleFunc("/api/v1/transaction-logs/", s.handleTransactionLogs)
	}
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
