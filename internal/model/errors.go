package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by stores and services.
var (
	ErrValidation        = errors.New("validation error")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrItemNotFound      = errors.New("item not found")
	ErrItemNotOwned      = errors.New("item not owned")
	ErrDuplicateItem     = errors.New("item already exists")
	ErrOutOfStock        = errors.New("item out of stock")
	ErrCooldownActive    = errors.New("cooldown active")
	ErrStorageCorruption = errors.New("storage document is corrupted")
)

// FieldError describes a validation failure of a single input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists the field errors found in one input.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// InsufficientFundsError is returned when a debit exceeds the balance.
// The balance is left untouched.
type InsufficientFundsError struct {
	AccountID string
	Place     Place
	Balance   int64
	Amount    int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account %s: %s balance %d is lower than %d", e.AccountID, e.Place, e.Balance, e.Amount)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// CooldownError is returned when a timed reward is claimed too early.
type CooldownError struct {
	Reward    Reward
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s reward available again in %s", e.Reward, e.Remaining)
}

func (e *CooldownError) Unwrap() error { return ErrCooldownActive }
