package types

import "time"

// Account represents a registered identity in the system.
// It is the persisted form; API responses use PublicIdentity instead.
type Account struct {
	// ID is the unique identifier assigned by storage on creation.
	ID int `json:"id" db:"id"`

	// Username is the unique, case-sensitive login name chosen at
	// registration. It never changes after creation.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the hashed representation of the account's
	// password. This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PublicIdentity is the externally-shareable projection of an Account.
type PublicIdentity struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Public projects an Account into its shareable form.
func (a Account) Public() PublicIdentity {
	return PublicIdentity{
		ID:        a.ID,
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
	}
}
