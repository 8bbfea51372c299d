// Package auth implements credential verification and session tokens.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account with the given username and credential.
	// Returns ErrUsernameTaken if the username already exists.
	Register(ctx context.Context, username, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Unknown usernames and wrong credentials both yield ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// ValidateCredential checks that the credential is well-formed.
	ValidateCredential(credential string) error
}
