package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindSequenceConflict Kind = "sequence_conflict"
	KindInconsistency    Kind = "inconsistency"
	KindTimeout          Kind = "timeout"
	KindAuth             Kind = "auth"
	KindInternal         Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind,omitempty"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Kind: KindAuth, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Kind: KindAuth, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: "Could not allocate a voucher number, please retry"}
	ErrUnprocessable      = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Unprocessable entity"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindAuth, Message: "Invalid email or password"}
	ErrTokenExpired       = &AppError{Code: http.StatusUnauthorized, Kind: KindAuth, Message: "Token has expired"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Kind: KindAuth, Message: "Invalid token"}
)

// Ledger errors
var (
	// ErrSequenceConflict is returned by the store when another transaction claimed the
	// same voucher number or the transaction could not be serialized. It is retryable.
	ErrSequenceConflict = &AppError{Code: http.StatusConflict, Kind: KindSequenceConflict, Message: "Voucher sequence conflict"}
	ErrTimeout          = &AppError{Code: http.StatusGatewayTimeout, Kind: KindTimeout, Message: "Ledger transaction timed out"}
	ErrClinicNotFound   = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Clinic not found"}
	ErrVoucherNotFound  = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Voucher not found"}
	ErrCustomerNotFound = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Customer not found"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewInconsistencyError reports a broken ledger invariant. The surrounding
// transaction must not commit.
func NewInconsistencyError(format string, args ...any) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInconsistency,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInvalidSequenceStateError reports a stored voucher number that cannot be
// continued (unparsable or exhausted sequence).
func NewInvalidSequenceStateError(format string, args ...any) *AppError {
	return NewInconsistencyError("invalid sequence state: "+format, args...)
}

// NewServiceNotFoundError is raised when a treatment service referenced by a
// line item disappears inside a running transaction.
func NewServiceNotFoundError(id fmt.Stringer) *AppError {
	return NewInconsistencyError("treatment service %s not found", id)
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindInternal
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err (or anything it wraps) is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// IsRetryable reports whether a ledger transaction failing with err may be re-run
func IsRetryable(err error) bool {
	return IsKind(err, KindSequenceConflict)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}
