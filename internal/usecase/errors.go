package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled indicates the account was deactivated by an admin.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrAccountLocked indicates too many failed attempts; match with
	// errors.Is and unwrap AccountLockedError for the retry hint.
	ErrAccountLocked = errors.New("account is locked")
	// ErrStoreUnavailable indicates the credential store could not be
	// reached. Never folded into ErrInvalidCredentials.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrInvalidSessionToken indicates a malformed or tampered session token.
	ErrInvalidSessionToken = errors.New("invalid session token")
	// ErrExpiredSessionToken indicates a well-formed token past its expiry.
	ErrExpiredSessionToken = errors.New("session token expired")
	// ErrDuplicateEmail indicates the registration email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAccountNotFound indicates an admin operation referenced an unknown
	// account. Login flows never surface this; they use ErrInvalidCredentials.
	ErrAccountNotFound = errors.New("account not found")
)

// AccountLockedError carries how long the caller should wait before retrying.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is locked, retry in %s", e.RetryAfter.Round(time.Second))
}

// Is makes errors.Is(err, ErrAccountLocked) match.
func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// AuthorizationError reports which requirement an authorization check failed.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "authorization denied: " + e.Reason
}
