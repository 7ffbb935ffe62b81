package domain

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrSameCurrency       = errors.New("currency cannot be traded against itself")
	ErrUnknownPair        = errors.New("no rate cached for pair")
	ErrStaleRate          = errors.New("cached rates are stale")
	ErrInvalidSnapshot    = errors.New("invalid rate snapshot")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPersistence        = errors.New("persistence failure")
	ErrFetchFailure       = errors.New("rate fetch failure")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials format")
	ErrAuthentication     = errors.New("wrong password")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// InsufficientFundsError reports a debit that would drive a balance negative.
type InsufficientFundsError struct {
	Currency  string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s %s, required %s %s",
		e.Available.String(), e.Currency, e.Required.String(), e.Currency)
}

// Is matches ErrInsufficientFunds.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// PersistenceError wraps a gateway failure for a record kind.
type PersistenceError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s %s: %v", e.Op, e.Kind, e.Err)
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// FetchError wraps a failed request to a rate source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("rate fetch failure: %s: %v", e.Source, e.Err)
}

// Is matches ErrFetchFailure.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailure
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
