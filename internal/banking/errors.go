package banking

import "errors"

var (
	// ErrNotFound occurs when the referenced client or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument occurs when an input precondition is violated, e.g. a
	// non-positive amount.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientFunds occurs when a withdrawal exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
