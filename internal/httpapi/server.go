// Package httpapi serves the JSON REST API used by the bundled single-page
// frontend, along with its static assets.
//
// Routes take the acting user from a user_id parameter. When a bearer token
// is supplied it must belong to that same user.
package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
)

// Options configure a Server.
type Options struct {
	// StaticDir holds the frontend assets served under /static/. Empty
	// disables static serving.
	StaticDir string

	// JWT, if set, validates optional bearer tokens.
	JWT *auth.JWTManager

	// AuthLimiter throttles /api/register and /api/login; nil disables it.
	AuthLimiter *middleware.RateLimiter
}

// Server provides the REST API and serves the web UI.
type Server struct {
	ledger *ledger.Service
	opts   Options
	router *mux.Router
}

// NewServer creates a Server and registers all routes.
func NewServer(l *ledger.Service, opts Options) *Server {
	s := &Server{ledger: l, opts: opts, router: mux.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.Handle("/register", s.limited(s.handleRegister)).Methods(http.MethodPost)
	api.Handle("/login", s.limited(s.handleLogin)).Methods(http.MethodPost)

	api.HandleFunc("/groups/join", s.handleJoinGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{user_id:-?[0-9]+}", s.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/group/{group_id:-?[0-9]+}/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/group/{group_id:-?[0-9]+}/members", s.handleListMembers).Methods(http.MethodGet)

	api.HandleFunc("/expenses", s.handleAddExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{expense_id:-?[0-9]+}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{expense_id:-?[0-9]+}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not Found")
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	if s.opts.StaticDir != "" {
		s.router.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir))),
		).Methods(http.MethodGet, http.MethodHead)
		s.router.PathPrefix("/").HandlerFunc(s.handleIndex).Methods(http.MethodGet, http.MethodHead)
	}
}

func (s *Server) limited(h http.HandlerFunc) http.Handler {
	if s.opts.AuthLimiter == nil {
		return h
	}
	return s.opts.AuthLimiter.Handler(h, func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusTooManyRequests, "Too many requests")
	})
}

// handleIndex serves index.html for every path that is not an asset, so the
// frontend can route on the client side.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		respondError(w, http.StatusNotFound, "Not Found")
		return
	}
	index := filepath.Join(s.opts.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}
