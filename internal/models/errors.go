package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// branch with errors.Is.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("concurrent modification")
)

// Balance names used in InsufficientFundsError.
const (
	BalanceActive  = "active"
	BalanceAccount = "account"
)

// InsufficientFundsError reports a debit larger than the balance it targets.
type InsufficientFundsError struct {
	Balance   string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s, required %s",
		e.Balance, e.Available.StringFixed(MoneyPlaces), e.Required.StringFixed(MoneyPlaces))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InvalidStateError reports an operation attempted on an entity whose status
// does not allow it.
type InvalidStateError struct {
	Entity    string
	ID        string
	Status    string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %s", e.Operation, e.Entity, e.ID, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// NotFoundError reports a missing plan, account, investment or request.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewNotFound is shorthand for &NotFoundError{...}.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
