package treasury

import (
	"errors"
	"fmt"

	"github.com/xraph/treasury/types"
)

// Sentinel errors for common failure scenarios. Every one signals a
// caller-fixable misuse, not a transient fault, and is surfaced
// synchronously with a reason the caller can act on.
var (
	// Movement validation
	ErrInvalidAmount    = errors.New("treasury: amount must be strictly positive")
	ErrInvalidDirection = errors.New("treasury: unknown movement direction")
	ErrInvalidOrigin    = errors.New("treasury: unknown movement origin")
	ErrCurrencyMismatch = errors.New("treasury: currency does not match the ledger currency")

	// Money conversion (aliased so callers need only one errors import)
	ErrPrecision      = types.ErrPrecision
	ErrDivisionByZero = types.ErrDivisionByZero
	ErrInvalidPeriod  = types.ErrInvalidPeriod

	// Lookup
	ErrNotFound            = errors.New("treasury: not found")
	ErrTransactionNotFound = errors.New("treasury: transaction not found")
	ErrBankNotFound        = errors.New("treasury: bank aggregate not initialized")

	// Lifecycle conflicts
	ErrAlreadyConsolidated  = errors.New("treasury: transaction is consolidated and immutable")
	ErrAlreadyReverted      = errors.New("treasury: transaction is already reverted")
	ErrNothingToConsolidate = errors.New("treasury: no in-flight transactions for period")
	ErrNothingSimulated     = errors.New("treasury: simulation balance is zero")

	// Store errors
	ErrStoreNotReady = errors.New("treasury: store not ready")
	ErrStoreClosed   = errors.New("treasury: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("treasury: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrBankNotFound)
}

// IsConflict returns true if the error is a lifecycle conflict the caller
// must resolve before retrying.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyConsolidated) ||
		errors.Is(err, ErrAlreadyReverted) ||
		errors.Is(err, ErrNothingToConsolidate) ||
		errors.Is(err, ErrNothingSimulated)
}

// IsValidation returns true if the error is an input validation failure.
func IsValidation(err error) bool {
	var verr ValidationError
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrInvalidOrigin) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrPrecision) ||
		errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.As(err, &verr)
}
