package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/models"
)

type userTable map[string]*models.User

func (u userTable) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return u[username], nil
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Username: "maria"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// jose's account was deleted; pedro's username was taken again by a new account
	joseToken, _ := jwtManager.Generate(&models.User{ID: "u2", Username: "jose"})
	pedroToken, _ := jwtManager.Generate(&models.User{ID: "u3", Username: "pedro"})
	users := userTable{
		"maria": {ID: "u1", Username: "maria"},
		"pedro": {ID: "u9", Username: "pedro"},
	}

	var seen string
	handler := RequireAuth(jwtManager, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUsername(r.Context())
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid bearer token", "Bearer " + token, http.StatusOK, "maria"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, ""},
		{"token of a deleted account", "Bearer " + joseToken, http.StatusUnauthorized, ""},
		{"token of an earlier account with the same username", "Bearer " + pedroToken, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/ledger", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if seen != tt.wantUser {
				t.Errorf("username = %q, want %q", seen, tt.wantUser)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 2)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/import", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

func TestLoggingKeepsStatus(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
