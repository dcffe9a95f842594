package ledger

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// LedgerError is embedded by every typed ledger error.
type LedgerError struct {
	Message string
}

func (errorValue LedgerError) Error() string {
	return errorValue.Message
}

// InvalidArgumentError reports a malformed address, amount or metadata field.
type InvalidArgumentError struct {
	LedgerError
	Field string
}

func (InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewInvalidArgumentError returns an InvalidArgumentError for field.
func NewInvalidArgumentError(field string, reason string) error {
	return InvalidArgumentError{
		LedgerError: LedgerError{Message: fmt.Sprintf("invalid argument %s: %s", field, reason)},
		Field:       field,
	}
}

// UnauthorizedError reports an owner-only operation attempted by another caller.
type UnauthorizedError struct {
	LedgerError
	Caller    Address
	Operation string
}

func (UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NewUnauthorizedError returns an UnauthorizedError for caller and operation.
func NewUnauthorizedError(caller Address, operation string) error {
	return UnauthorizedError{
		LedgerError: LedgerError{Message: fmt.Sprintf("%s is not authorized to %s", caller, operation)},
		Caller:      caller,
		Operation:   operation,
	}
}

// InsufficientBalanceError reports a debit larger than the account balance.
type InsufficientBalanceError struct {
	LedgerError
	Account   Address
	Requested string
	Available string
}

func (InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// NewInsufficientBalanceError returns an InsufficientBalanceError for account.
func NewInsufficientBalanceError(account Address, requested string, available string) error {
	return InsufficientBalanceError{
		LedgerError: LedgerError{
			Message: fmt.Sprintf("insufficient balance for %s: requested %s, available %s", account, requested, available),
		},
		Account:   account,
		Requested: requested,
		Available: available,
	}
}
