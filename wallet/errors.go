/*
errors.go - Centralized error types for the wallet engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these to HTTP statuses; the core never formats
  user-visible messages beyond the domain context it carries.

ERROR CATEGORIES:
  1. Not-found errors - Missing OR foreign-owned entities (indistinguishable
     on purpose, to avoid leaking existence across owners)
  2. Balance errors - Mutations that would drive a balance negative
  3. Input errors - Malformed references, invalid ranges, validation failures

All errors from this package are terminal for the operation that raised
them. Nothing is retried internally: retrying a balance mutation could
double-apply a delta.

USAGE:
  if errors.Is(err, wallet.ErrInsufficientBalance) {
      var ib *wallet.InsufficientBalanceError
      errors.As(err, &ib)
      // ib.Balance is the pre-operation balance, for user display
  }

SEE ALSO:
  - maintainer.go: Raises InsufficientBalanceError
  - ledger.go: Raises not-found and validation errors
*/
package wallet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrWalletNotFound is returned when a wallet does not exist or is owned
	// by a different user. The two cases are deliberately the same error.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrTransactionNotFound is returned when a transaction does not exist
	// or is owned by a different user.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInsufficientBalance is returned when a balance-changing operation
	// would make the wallet balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidRange is returned when a statement range has start after end.
	ErrInvalidRange = errors.New("start date cannot be after end date")

	// ErrInvalidReference is returned for a malformed id where a store
	// identifier is expected. Raised before any store access.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrValidation is the base error for input validation failures.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a rejected balance mutation. Balance is
// the wallet's pre-operation balance, carried so the caller can surface it
// in a user-facing message.
type InsufficientBalanceError struct {
	WalletID  WalletID
	Balance   Amount
	Requested Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current balance %s, requested change %s",
		e.Balance, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// ValidationError reports a single invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing (or foreign) entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than a store or internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrValidation)
}
