// Copyright 2025 GOVRES Settlement Authority
//
// Sentinel errors for ledger operations. Every precondition failure maps to
// exactly one of these; no operation leaves partial state behind an error.

package ledger

import "errors"

var (
	// ErrNotInitialized is returned when an operation runs before Initialize.
	ErrNotInitialized = errors.New("ledger is not initialized")

	// ErrAlreadyInitialized is returned when Initialize runs twice.
	ErrAlreadyInitialized = errors.New("ledger is already initialized")

	// ErrDuplicateAccount is returned when re-registering an existing accountId.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrUnknownAccount is returned when referencing a non-existent account.
	ErrUnknownAccount = errors.New("account does not exist")

	// ErrInactiveAccount is returned when a transfer party is deactivated.
	ErrInactiveAccount = errors.New("account is not active")

	// ErrUnauthorized is returned on a role mismatch for mint or redeem.
	ErrUnauthorized = errors.New("account role does not permit this operation")

	// ErrInsufficientReserve is returned when a mint would breach the gold
	// backing allocation bound.
	ErrInsufficientReserve = errors.New("insufficient gold reserve for requested backing")

	// ErrInsufficientBalance is returned when a transfer or redeem exceeds
	// the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAmountBelowMinimum is returned below the issuance minimums.
	ErrAmountBelowMinimum = errors.New("amount below minimum")

	// ErrNonPositiveAmount is returned for zero or negative amounts where a
	// positive addend is required.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrNotHolder is returned when a conversion is attempted by an account
	// that does not hold the instrument.
	ErrNotHolder = errors.New("account is not the instrument holder")

	// ErrInvalidState is returned when an instrument's status forbids the
	// operation (terminal statuses never transition).
	ErrInvalidState = errors.New("instrument state forbids this operation")

	// ErrUnknownInstrument is returned when referencing a non-existent
	// instrument.
	ErrUnknownInstrument = errors.New("instrument does not exist")

	// ErrUnsupportedTarget is returned for a conversion target other than
	// GBDC or CASH.
	ErrUnsupportedTarget = errors.New("unsupported conversion target")

	// ErrBlockValidationFailed is returned when a sealed block fails
	// validation; its transactions return to the head of the queue.
	ErrBlockValidationFailed = errors.New("sealed block failed validation")

	// ErrBlockNotFound is returned when querying a height beyond the tip.
	ErrBlockNotFound = errors.New("block not found")
)
