package models

import "time"

// User represents a registered account. Each user owns exactly one ledger,
// addressed in storage by Username.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the login name (unique, case-sensitive).
	Username string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewUser creates a user with a zero ID; the store assigns it.
func NewUser(username, passwordHash string) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
