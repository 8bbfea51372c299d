package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mmynk/splitledger/internal/ledger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, messageResponse{Message: message})
}

// respondLedgerError writes the status for a ledger error. notFound is the
// detail used when the error is ledger.ErrNotFound.
func respondLedgerError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, ledger.ErrDuplicateUsername):
		respondError(w, http.StatusBadRequest, "Username already registered")
	case errors.Is(err, ledger.ErrInvalidCredentials):
		respondError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	case errors.Is(err, ledger.ErrInvalidArgument):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrUnavailable):
		slog.Warn("request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusServiceUnavailable, "Service unavailable")
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID parses the named route variable as an id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryID parses the named query parameter as an id.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
