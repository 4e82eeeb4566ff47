// Package error defines domain-specific errors for the budget tracker ledger.
package error

import "errors"

// Ledger domain errors.
var (
	// ErrInvalidTransactionType is returned when the transaction type is invalid.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvalidAmount is returned when the amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrMissingDate is returned when no transaction date is provided.
	ErrMissingDate = errors.New("transaction date is required")

	// ErrMissingCategory is returned when no category name is provided.
	ErrMissingCategory = errors.New("category is required")

	// ErrUnknownCategory is returned when the category name does not match any
	// category currently mirrored for the owner.
	ErrUnknownCategory = errors.New("category does not exist")

	// ErrCategoryNotEligible is returned when the category's type does not
	// admit the transaction's type.
	ErrCategoryNotEligible = errors.New("category is not eligible for this transaction type")

	// ErrInvalidCategoryType is returned when the category type is invalid.
	ErrInvalidCategoryType = errors.New("invalid category type")

	// ErrMissingCategoryName is returned when no category name is provided.
	ErrMissingCategoryName = errors.New("category name is required")

	// ErrDuplicateCategoryName is returned when the owner already has a
	// category with the same name.
	ErrDuplicateCategoryName = errors.New("category name already exists")

	// ErrNotBound is returned when a mutation is attempted with no active
	// user session.
	ErrNotBound = errors.New("no active user session")

	// ErrTransactionNotFound is returned when a transaction is not found in the store.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrCategoryNotFound is returned when a category is not found in the store.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrEmptyPatch is returned when a partial update carries no fields.
	ErrEmptyPatch = errors.New("no fields to update")
)

// LedgerErrorCode defines error codes for ledger errors.
// Format: LDG-XXYYYY where XX is category and YYYY is specific error.
type LedgerErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidTransactionType LedgerErrorCode = "LDG-010001"
	ErrCodeInvalidAmount          LedgerErrorCode = "LDG-010002"
	ErrCodeMissingDate            LedgerErrorCode = "LDG-010003"
	ErrCodeMissingCategory        LedgerErrorCode = "LDG-010004"
	ErrCodeUnknownCategory        LedgerErrorCode = "LDG-010005"
	ErrCodeCategoryNotEligible    LedgerErrorCode = "LDG-010006"
	ErrCodeInvalidCategoryType    LedgerErrorCode = "LDG-010007"
	ErrCodeMissingCategoryName    LedgerErrorCode = "LDG-010008"
	ErrCodeDuplicateCategoryName  LedgerErrorCode = "LDG-010009"
	ErrCodeEmptyPatch             LedgerErrorCode = "LDG-010010"

	// Session errors (02XXXX)
	ErrCodeNotBound LedgerErrorCode = "LDG-020001"

	// Store errors (03XXXX)
	ErrCodeTransactionNotFound LedgerErrorCode = "LDG-030001"
	ErrCodeCategoryNotFound    LedgerErrorCode = "LDG-030002"
)

// LedgerError represents a ledger error with code and message.
type LedgerError struct {
	Code    LedgerErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError with the given code and message.
func NewLedgerError(code LedgerErrorCode, message string, err error) *LedgerError {
	return &LedgerError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
