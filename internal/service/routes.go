package service

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Deps are the collaborators the RPC services are built from.
type Deps struct {
	Ledger *ledger.Service
	JWT    *auth.JWTManager

	// Metrics is optional.
	Metrics *metrics.Metrics

	// AuthLimiter throttles AuthService per client; nil disables it.
	AuthLimiter *middleware.RateLimiter
}

// Mount registers the AuthService, GroupService and ExpenseService handlers on mux.
// AuthService is public; the others require a bearer token.
func Mount(mux *http.ServeMux, deps Deps) {
	var base []connect.Interceptor
	if deps.Metrics != nil {
		base = append(base, deps.Metrics.Interceptor())
	}
	base = append(base, middleware.LoggingInterceptor())

	public := connect.WithInterceptors(append(base[:len(base):len(base)], deps.AuthLimiter.Interceptor())...)
	protected := connect.WithInterceptors(append(base[:len(base):len(base)], middleware.RequireAuth(deps.JWT))...)

	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(deps.Ledger), public))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(deps.Ledger), protected))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(deps.Ledger), protected))
}
