package models

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine-readable code surfaced in the error body.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION"
	CodeAgeRestriction     ErrorCode = "AGE_RESTRICTION"
	CodeInvalidPinFormat   ErrorCode = "INVALID_PIN_FORMAT"
	CodeInvalidPhone       ErrorCode = "INVALID_PHONE"
	CodeInvalidPrivilege   ErrorCode = "INVALID_PRIVILEGE"
	CodeInvalidMode        ErrorCode = "INVALID_MODE"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeDuplicate          ErrorCode = "DUPLICATE"
	CodeAlreadyActive      ErrorCode = "ALREADY_ACTIVE"
	CodeAlreadyInactive    ErrorCode = "ALREADY_INACTIVE"
	CodeAccountInactive    ErrorCode = "ACCOUNT_INACTIVE"
	CodeAccountClosed      ErrorCode = "ACCOUNT_CLOSED"
	CodeSameAccount        ErrorCode = "SAME_ACCOUNT"
	CodeInvalidPin         ErrorCode = "INVALID_PIN"
	CodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	CodeDailyLimitExceeded ErrorCode = "DAILY_LIMIT_EXCEEDED"
	CodeDailyCountExceeded ErrorCode = "DAILY_COUNT_EXCEEDED"
	CodeBalanceOverflow    ErrorCode = "BALANCE_OVERFLOW"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeStorageFailure     ErrorCode = "STORAGE_FAILURE"
)

// DomainError carries a stable code plus a human-readable message. Handlers
// map codes to HTTP statuses; service and store layers deal only in codes.
type DomainError struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// Is makes errors.Is match on code equality so sentinel comparisons work
// across wrapping layers.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if errors.As(target, &de) {
		return de.Code == e.Code
	}
	return false
}

// NewError builds a DomainError with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a DomainError that wraps an underlying cause. The cause is
// never serialized to clients; it exists for logs and errors.Is chains.
func WrapError(code ErrorCode, cause error, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf extracts the ErrorCode from err, or CodeStorageFailure when err is
// not a DomainError (unexpected internal failure).
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeStorageFailure
}

// Common sentinels used with errors.Is across the services.
var (
	ErrNotFound          = NewError(CodeNotFound, "account not found")
	ErrAccountInactive   = NewError(CodeAccountInactive, "account is inactive")
	ErrAccountClosed     = NewError(CodeAccountClosed, "account is closed")
	ErrInsufficientFunds = NewError(CodeInsufficientFunds, "insufficient funds")
	ErrBalanceOverflow   = NewError(CodeBalanceOverflow, "balance would exceed maximum representable value")
	ErrInvalidPin        = NewError(CodeInvalidPin, "pin verification failed")
)
