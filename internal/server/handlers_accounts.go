package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

const accountsPrefix = "/api/v1/accounts/"

type createSavingsRequest struct {
	HolderName  string           `json:"holder_name"`
	Pin         string           `json:"pin"`
	DateOfBirth string           `json:"date_of_birth"` // YYYY-MM-DD
	Gender      models.Gender    `json:"gender"`
	PhoneNumber string           `json:"phone_number"`
	Privilege   models.Privilege `json:"privilege,omitempty"`
	OwnerID     string           `json:"owner_id,omitempty"`
}

// handleCreateSavings handles POST /api/v1/accounts/savings.
func (s *Server) handleCreateSavings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	var req createSavingsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, models.CodeValidation,
			"date_of_birth must be YYYY-MM-DD")
		return
	}

	acct, err := s.app.Accounts.CreateSavings(r.Context(), interfaces.CreateSavingsInput{
		HolderName:  req.HolderName,
		Pin:         req.Pin,
		DateOfBirth: dob,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
		Privilege:   req.Privilege,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, acct)
}

type createCurrentRequest struct {
	HolderName         string           `json:"holder_name"`
	Pin                string           `json:"pin"`
	CompanyName        string           `json:"company_name"`
	Website            string           `json:"website,omitempty"`
	RegistrationNumber string           `json:"registration_number"`
	Privilege          models.Privilege `json:"privilege,omitempty"`
	OwnerID            string           `json:"owner_id,omitempty"`
}

// handleCreateCurrent handles POST /api/v1/accounts/current.
func (s *Server) handleCreateCurrent(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if _, ok := requireStaff(w, r); !ok {
		return
	}

	var req createCurrentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	acct, err := s.app.Accounts.CreateCurrent(r.Context(), interfaces.CreateCurrentInput{
		HolderName:         req.HolderName,
		Pin:                req.Pin,
		CompanyName:        req.CompanyName,
		Website:            req.Website,
		RegistrationNumber: req.RegistrationNumber,
		Privilege:          req.Privilege,
		OwnerID:            req.OwnerID,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, acct)
}

// routeAccounts dispatches /api/v1/accounts/{n} and its sub-resources.
func (s *Server) routeAccounts(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, accountsPrefix)
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
		switch r.Method {
		case http.MethodGet:
			s.handleAccountGet(w, r, number)
		case http.MethodPatch:
			s.handleAccountUpdate(w, r, number)
		default:
			RequireMethod(w, r, http.MethodGet, http.MethodPatch)
		}
	case "activate":
		s.handleAccountActivate(w, r, number, true)
	case "inactivate":
		s.handleAccountActivate(w, r, number, false)
	case "close":
		s.handleAccountClose(w, r, number)
	case "audit":
		s.handleAccountAudit(w, r, number)
	default:
		WriteError(w, http.StatusNotFound, models.CodeNotFound, "unknown resource")
	}
}

// handleAccountGet handles GET /api/v1/accounts/{n}. Staff see any account;
// customers only their own.
func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request, number int64) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	acct, err := s.app.Accounts.Get(r.Context(), number)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if !p.IsStaff() && acct.OwnerID != p.Subject {
		WriteError(w, http.StatusForbidden, models.CodeForbidden, "not your account")
		return
	}
	WriteJSON(w, http.StatusOK, acct)
}

type updateAccountRequest struct {
	HolderName *string           `json:"holder_name,omitempty"`
	Privilege  *models.Privilege `json:"privilege,omitempty"`
}

// handleAccountUpdate handles PATCH /api/v1/accounts/{n}.
func (s *Server) handleAccountUpdate(w http.ResponseWriter, r *http.Request, number int64) {
	if _, ok := requireStaff(w, r); !ok {
		return
	}
	var req updateAccountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	acct, err := s.app.Accounts.Update(r.Context(), number, interfaces.UpdateAccountInput{
		HolderName: req.HolderName,
		Privilege:  req.Privilege,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, acct)
}

// handleAccountActivate handles PUT /api/v1/accounts/{n}/activate and
// /inactivate. ADMIN only.
func (s *Server) handleAccountActivate(w http.ResponseWriter, r *http.Request, number int64, active bool) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var acct *models.Account
	var err error
	if active {
		acct, err = s.app.Accounts.Activate(r.Context(), number)
	} else {
		acct, err = s.app.Accounts.Inactivate(r.Context(), number)
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, acct)
}

// handleAccountClose handles POST /api/v1/accounts/{n}/close. ADMIN only.
func (s *Server) handleAccountClose(w http.ResponseWriter, r *http.Request, number int64) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	acct, err := s.app.Accounts.Close(r.Context(), number)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, acct)
}

// handleAccountAudit handles GET /api/v1/accounts/{n}/audit. ADMIN only.
func (s *Server) handleAccountAudit(w http.ResponseWriter, r *http.Request, number int64) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	entries, err := s.app.Accounts.Audit(r.Context(), number, queryLimit(r))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AccountAudit{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

// queryLimit parses the optional ?limit= query parameter.
func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			if n > 500 {
				n = 500
			}
			return n
		}
	}
	return 0
}
