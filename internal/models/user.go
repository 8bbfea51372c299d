package models

import "time"

// User represents a registered user account.
type User struct {
	// ID is assigned by the store on insert.
	ID int64 `db:"id"`

	// Username is unique and compared case-sensitively.
	Username string `db:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `db:"password_hash"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `db:"created_at"`
}

// NewUser creates a user that has not been persisted yet.
func NewUser(username, passwordHash string) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
