package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes shared by every transport
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnbalancedEntry   = "UNBALANCED_ENTRY"
	CodeInsufficientLines = "INSUFFICIENT_LINES"
	CodeAuthentication    = "AUTHENTICATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeDuplicateCode     = "DUPLICATE_CODE"
	CodeAlreadyPosted     = "ALREADY_POSTED"
	CodeOverpayment       = "OVERPAYMENT_REJECTED"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeInternal          = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrValidation        = AppError{Code: CodeValidation}
	ErrUnbalancedEntry   = AppError{Code: CodeUnbalancedEntry}
	ErrInsufficientLines = AppError{Code: CodeInsufficientLines}
	ErrNotFound          = AppError{Code: CodeNotFound}
	ErrConflict          = AppError{Code: CodeConflict}
	ErrDuplicateCode     = AppError{Code: CodeDuplicateCode}
	ErrAlreadyPosted     = AppError{Code: CodeAlreadyPosted}
	ErrOverpayment       = AppError{Code: CodeOverpayment}
	ErrInvalidTransition = AppError{Code: CodeInvalidTransition}
	ErrInternal          = AppError{Code: CodeInternal}
)

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is implements the errors.Is interface
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e AppError) WithDetails(details map[string]interface{}) AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(message string) AppError {
	return AppError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(message string, err error) AppError {
	return AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewUnbalancedEntryError reports a journal entry whose debit and credit totals differ
func NewUnbalancedEntryError(totalDebit, totalCredit string) AppError {
	return AppError{
		Code:       CodeUnbalancedEntry,
		Message:    fmt.Sprintf("journal entry is not balanced: debit %s, credit %s", totalDebit, totalCredit),
		StatusCode: http.StatusBadRequest,
		Details: map[string]interface{}{
			"totalDebit":  totalDebit,
			"totalCredit": totalCredit,
		},
	}
}

// NewInsufficientLinesError reports a journal entry with fewer than two lines
func NewInsufficientLinesError(count int) AppError {
	return AppError{
		Code:       CodeInsufficientLines,
		Message:    fmt.Sprintf("journal entry needs at least two lines, got %d", count),
		StatusCode: http.StatusBadRequest,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) AppError {
	return AppError{
		Code:       CodeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:       CodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) AppError {
	return AppError{
		Code:       CodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewDuplicateCodeError reports a unique business key that is already taken
func NewDuplicateCodeError(kind, code string) AppError {
	return AppError{
		Code:       CodeDuplicateCode,
		Message:    fmt.Sprintf("%s %q already exists", kind, code),
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{kind: code},
	}
}

// NewAlreadyPostedError reports a second post of the same journal entry
func NewAlreadyPostedError(journalEntryID string) AppError {
	return AppError{
		Code:       CodeAlreadyPosted,
		Message:    fmt.Sprintf("journal entry %s is already posted", journalEntryID),
		StatusCode: http.StatusConflict,
	}
}

// NewOverpaymentError reports a payment larger than the open invoice balance
func NewOverpaymentError(amount, balance string) AppError {
	return AppError{
		Code:       CodeOverpayment,
		Message:    fmt.Sprintf("payment of %s exceeds invoice balance %s", amount, balance),
		StatusCode: http.StatusConflict,
		Details: map[string]interface{}{
			"amount":  amount,
			"balance": balance,
		},
	}
}

// NewInvalidTransitionError reports a status change the lifecycle does not allow
func NewInvalidTransitionError(from, to string) AppError {
	return AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot change status from %s to %s", from, to),
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) AppError {
	return AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsAppError converts any error into an AppError, hiding the cause of unknown errors
func AsAppError(err error) AppError {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("An unexpected error occurred", err)
}
