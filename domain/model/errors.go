package model

import "errors"

// Validation and state-machine errors
var (
	ErrValidation        = errors.New("validation failed")
	ErrNoActiveRound     = errors.New("no active competition round")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("resource not found")
)

// Ledger errors
var (
	ErrInsufficientCredit = errors.New("insufficient credit balance")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrAlreadyRefunded    = errors.New("transaction already refunded")
)

// Payment session errors
var (
	ErrAlreadyFinalized = errors.New("payment session already finalized")
	ErrExpired          = errors.New("payment session expired")
	ErrUnknownMethod    = errors.New("unknown payment method")
)

// Media errors
var (
	ErrMediaTooLarge = errors.New("media file exceeds size limit")
	ErrMediaTooLong  = errors.New("media duration exceeds limit")
)

// Auth errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserBanned   = errors.New("user account is banned")
	ErrOTPInvalid   = errors.New("invalid or expired otp code")
)
