package models

import (
	"errors"
	"fmt"
)

// Domain errors returned by the ledger engine and the stores. Handlers map
// these to HTTP status codes.
var (
	// ErrAccountNotFound is returned when a lookup by id or account number
	// matches no account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a transaction lookup by id
	// matches no record.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidAmount is returned for non-positive transfer amounts or
	// amounts with more than two fractional digits.
	ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")

	// ErrInsufficientFunds is returned when the source balance cannot cover
	// the transfer.
	ErrInsufficientFunds = errors.New("insufficient funds in source account")

	// ErrSameAccount is returned when source and target resolve to the same
	// account.
	ErrSameAccount = errors.New("source and target are the same account")

	// ErrDuplicateAccountNumber is returned when creating an account with a
	// number that is already taken.
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// ErrInvalidAccountNumber is returned when creating an account with an
	// empty account number.
	ErrInvalidAccountNumber = errors.New("account number is required")

	// ErrAuditWriteFailed is returned when the final transaction record
	// write failed. The attempt is logged and alerted but has no durable
	// record; operator reconciliation is required.
	ErrAuditWriteFailed = errors.New("failed to persist transaction record")
)

// StorageError wraps a transient persistence failure. Callers may retry the
// whole operation; the ledger engine guarantees balances were not left
// half-applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a transient storage failure for operation op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
