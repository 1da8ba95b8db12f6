package services

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map these to 4xx responses; anything else that
// escapes the service is a storage failure and maps to 5xx.
var (
	// ErrUsernameTaken is returned when the requested username already
	// belongs to an account, whether found by pre-check or by losing
	// the insert race.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrMissingCredentials is returned when login is attempted with a
	// blank username or password.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrUserNotFound is returned when no account holds the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPassword is returned when the password does not match
	// the stored hash.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidID is returned for non-positive account ids, before any
	// storage round-trip.
	ErrInvalidID = errors.New("invalid account id")

	// ErrAccountNotFound is returned when a lookup by id misses.
	ErrAccountNotFound = errors.New("account not found")
)

// ValidationError reports a malformed username or password. It is
// produced before any I/O and carries a reason safe to show to clients.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsDomainError reports whether err belongs to the closed set of
// client-caused failures.
func IsDomainError(err error) bool {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return true
	}
	return errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidPassword) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrAccountNotFound)
}
