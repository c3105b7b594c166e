// Package service provides business logic implementations.
package service

import (
	"errors"
	"time"
)

// lockTimeout bounds how long a request waits for a user's lock.
const lockTimeout = 5 * time.Second

// Account and balance errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount: must be positive")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidPostLink     = errors.New("post link must not be empty")
)

// Referral errors.
var (
	ErrSelfReferral    = errors.New("cannot refer yourself")
	ErrUnknownReferrer = errors.New("referrer not found")
	ErrAlreadyReferred = errors.New("user was already referred")
)

// Withdrawal errors.
var (
	ErrWithdrawalsClosed = errors.New("withdrawals are closed")
	ErrNoPostLink        = errors.New("post link not set")
	ErrBelowMinimum      = errors.New("below minimum withdrawal")
	ErrAboveMaximum      = errors.New("above maximum withdrawal")
	ErrMenuExpired       = errors.New("withdrawal menu expired")
)

// Settings errors.
var (
	ErrInvalidChannel = errors.New("channel handle must not be empty")
)
