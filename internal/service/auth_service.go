package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	ledger *ledger.Service
}

// NewAuthService creates a new authentication service.
func NewAuthService(l *ledger.Service) *AuthService {
	return &AuthService{ledger: l}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	slog.Info("Register request", "username", req.Msg.Username)

	user, err := s.ledger.Register(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		slog.Warn("Registration failed", "username", req.Msg.Username, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.RegisterResponse{UserID: user.ID}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	slog.Info("Login request", "username", req.Msg.Username)

	session, err := s.ledger.Login(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		slog.Warn("Login failed", "username", req.Msg.Username, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("User logged in successfully", "user_id", session.User.ID)
	return connect.NewResponse(&api.LoginResponse{
		Token:     session.Token,
		TokenType: session.TokenType,
		UserID:    session.User.ID,
		Username:  session.User.Username,
		ExpiresAt: session.ExpiresAt.Unix(),
	}), nil
}
