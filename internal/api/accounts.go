package api

import (
	"net/http"

	"github.com/mmynk/treasurer/internal/middleware"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Signup handles POST /api/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "Signup", err)
		return
	}
	user, token, err := h.auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		fail(w, r, "Signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Username: user.Username, Token: token})
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "Login", err)
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		fail(w, r, "Login", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Username: user.Username, Token: token})
}

// Logout handles POST /api/logout. The token stays valid until it expires;
// the ledger is saved and unloaded.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.GetUsername(r.Context())); err != nil {
		fail(w, r, "Logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /api/account.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteAccount(r.Context(), middleware.GetUsername(r.Context())); err != nil {
		fail(w, r, "DeleteAccount", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
