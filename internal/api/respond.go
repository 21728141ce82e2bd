package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/middleware"
	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/service"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// decodeJSON reads a JSON request body into v. Malformed bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrMissingUsername):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUsernameExists),
		errors.Is(err, models.ErrNothingToExport):
		return http.StatusConflict
	case errors.Is(err, models.ErrImportFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err under op and writes the mapped status. Internal errors are
// not echoed to the client.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	username := middleware.GetUsername(r.Context())
	switch {
	case status >= 500:
		slog.Error(op+" failed", "username", username, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	case status == http.StatusNotFound:
		slog.Warn(op+" failed", "username", username, "error", err)
	default:
		slog.Debug(op+" rejected", "username", username, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// session returns the caller's loaded ledger session.
func (h *Handler) session(r *http.Request) (*service.Session, error) {
	return h.sessions.Get(r.Context(), middleware.GetUsername(r.Context()))
}

// update runs fn against the caller's ledger and writes the result as JSON.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, op string, status int, fn func(l *ledger.Ledger) (any, error)) {
	var out any
	err := h.sessions.Update(r.Context(), middleware.GetUsername(r.Context()), func(l *ledger.Ledger) error {
		var err error
		out, err = fn(l)
		return err
	})
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, status, out)
}
