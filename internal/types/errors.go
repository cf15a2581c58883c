package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Lookup errors
	ErrLedgerNotFound ErrorCode = "LEDGER_NOT_FOUND"
	ErrOfferNotFound  ErrorCode = "OFFER_NOT_FOUND"

	// Purchase errors
	ErrInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrStatAtMaximum       ErrorCode = "STAT_AT_MAXIMUM"
	ErrGrantFailed         ErrorCode = "GRANT_FAILED"
	ErrPlayerOffline       ErrorCode = "PLAYER_OFFLINE"

	// Input errors
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrInvalidCommand  ErrorCode = "INVALID_COMMAND"
	ErrInvalidCatalog  ErrorCode = "INVALID_CATALOG"
	ErrInvalidConfig   ErrorCode = "INVALID_CONFIG"

	// System errors
	ErrPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
)

// ShopError represents a shop-related error
type ShopError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *ShopError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ShopError) Unwrap() error {
	return e.Err
}

// NewShopError creates a new ShopError
func NewShopError(code ErrorCode, message string) *ShopError {
	return &ShopError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a ShopError
func WrapError(code ErrorCode, message string, err error) *ShopError {
	return &ShopError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsShopError checks if an error is a ShopError and has a specific code
func IsShopError(err error, code ErrorCode) bool {
	var shopErr *ShopError
	if !As(err, &shopErr) {
		return false
	}
	return shopErr.Code == code
}

// As finds the first ShopError in err's chain
func As(err error, target **ShopError) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}
