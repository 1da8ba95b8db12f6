package services

import (
	"fmt"
	"regexp"
	"strings"
)

// Credential shape rules. Enforced before any storage access so a
// malformed request never costs a round-trip.
const (
	DefaultMinUsernameLen = 3
	DefaultMaxUsernameLen = 50
	DefaultMinPasswordLen = 4
	DefaultMaxPasswordLen = 100
)

// bcrypt refuses inputs longer than 72 bytes, so the effective password
// ceiling is the lower of the configured max and this limit. Rejecting
// up front keeps the failure a validation error instead of a hashing
// error deep in registration.
const maxPasswordHashBytes = 72

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// CredentialRules holds the configured length bounds.
type CredentialRules struct {
	MinUsername int
	MaxUsername int
	MinPassword int
	MaxPassword int
}

// DefaultCredentialRules returns the standard bounds.
func DefaultCredentialRules() CredentialRules {
	return CredentialRules{
		MinUsername: DefaultMinUsernameLen,
		MaxUsername: DefaultMaxUsernameLen,
		MinPassword: DefaultMinPasswordLen,
		MaxPassword: DefaultMaxPasswordLen,
	}
}

// ValidateUsername checks the trimmed username against the shape rules
// and returns the trimmed value on success.
func (r CredentialRules) ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if len(username) < r.MinUsername || len(username) > r.MaxUsername {
		return "", &ValidationError{
			Field:  "username",
			Reason: fmt.Sprintf("must be between %d and %d characters", r.MinUsername, r.MaxUsername),
		}
	}
	if !usernamePattern.MatchString(username) {
		return "", &ValidationError{
			Field:  "username",
			Reason: "may only contain letters, digits and underscores",
		}
	}
	return username, nil
}

// ValidatePassword checks the password against the shape rules. The
// password is not trimmed: surrounding whitespace is simply rejected by
// the no-space rule.
func (r CredentialRules) ValidatePassword(pass string) (string, error) {
	if pass == "" {
		return "", &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	maxLen := r.MaxPassword
	if maxLen > maxPasswordHashBytes {
		maxLen = maxPasswordHashBytes
	}
	if len(pass) < r.MinPassword || len(pass) > maxLen {
		return "", &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be between %d and %d characters", r.MinPassword, maxLen),
		}
	}
	if strings.Contains(pass, " ") {
		return "", &ValidationError{Field: "password", Reason: "must not contain spaces"}
	}
	return pass, nil
}
