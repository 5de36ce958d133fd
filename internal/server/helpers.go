package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gdbank/gdb/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error body with an explicit status and code.
func WriteError(w http.ResponseWriter, statusCode int, code models.ErrorCode, message string) {
	WriteJSON(w, statusCode, ErrorResponse{ErrorCode: string(code), Message: message})
}

// WriteDomainError maps a service error to its HTTP status and writes the
// standard error body.
func WriteDomainError(w http.ResponseWriter, err error) {
	code := models.CodeOf(err)
	WriteError(w, statusForCode(code), code, err.Error())
}

// statusForCode maps the stable error codes to HTTP statuses.
func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.CodeValidation, models.CodeAgeRestriction, models.CodeInvalidPinFormat,
		models.CodeInvalidPhone, models.CodeInvalidPrivilege, models.CodeInvalidMode:
		return http.StatusUnprocessableEntity
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeDuplicate, models.CodeAlreadyActive, models.CodeAlreadyInactive,
		models.CodeAccountInactive, models.CodeAccountClosed, models.CodeSameAccount,
		models.CodeInsufficientFunds, models.CodeDailyLimitExceeded,
		models.CodeDailyCountExceeded, models.CodeBalanceOverflow:
		return http.StatusConflict
	case models.CodeInvalidPin, models.CodeUnauthorized:
		return http.StatusUnauthorized
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, models.CodeValidation, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, models.CodeValidation, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Amount-scale violations surface during decoding; keep their code.
		if models.CodeOf(err) == models.CodeValidation {
			WriteError(w, http.StatusUnprocessableEntity, models.CodeValidation, err.Error())
			return false
		}
		WriteError(w, http.StatusBadRequest, models.CodeValidation, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/v1/accounts/{n}/activate, calling
// PathParam(r, "/api/v1/accounts/", "/activate") extracts the {n} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// AccountParam parses the {n} path segment as an account number. Writes a 404
// and returns false on a non-numeric segment.
func AccountParam(w http.ResponseWriter, r *http.Request, prefix, suffix string) (int64, bool) {
	raw := PathParam(r, prefix, suffix)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		WriteError(w, http.StatusNotFound, models.CodeNotFound, "unknown account")
		return 0, false
	}
	return n, true
}
