package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
)

// errInternal hides server-side details from clients.
var errInternal = errors.New("internal error")

// toConnectError maps ledger errors onto Connect status codes.
func toConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, ledger.ErrDuplicateUsername):
		return connect.NewError(connect.CodeAlreadyExists, ledger.ErrDuplicateUsername)
	case errors.Is(err, ledger.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, ledger.ErrInvalidCredentials)
	case errors.Is(err, ledger.ErrInvalidArgument):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrUnavailable):
		return connect.NewError(connect.CodeUnavailable, ledger.ErrUnavailable)
	case errors.Is(err, ledger.ErrCodeSpaceExhausted):
		return connect.NewError(connect.CodeResourceExhausted, ledger.ErrCodeSpaceExhausted)
	default:
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}
