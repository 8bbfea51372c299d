package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/storage"
)

// Errors returned by Service. Transports map them to status codes with
// errors.Is; the messages are safe to show to clients.
var (
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnavailable        = errors.New("service unavailable")
	ErrCodeSpaceExhausted = errors.New("could not allocate a join code")
)

// translate maps errors from the storage and auth layers onto the ledger's
// sentinels. The original error stays in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrDuplicateUsername, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, auth.ErrEmptyUsername), errors.Is(err, auth.ErrEmptyPassword),
		errors.Is(err, storage.ErrInvalidArgument):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrCodeSpaceExhausted):
		return fmt.Errorf("%w: %w", ErrCodeSpaceExhausted, err)
	case errors.Is(err, storage.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}

// outcome names the class of err for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateUsername):
		return "duplicate"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrCodeSpaceExhausted):
		return "code_space_exhausted"
	default:
		return "error"
	}
}
