package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// UsernameKey is the context key for the authenticated username, which
	// also addresses the user's ledger.
	UsernameKey contextKey = "username"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetUsername extracts the username from the context.
// Returns empty string if not found.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// WithUser returns ctx carrying the given identity.
func WithUser(ctx context.Context, userID, username string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UsernameKey, username)
}

// UserLookup finds the account stored under a username; (nil, nil) when there is none.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, checks
// that the account it was issued to still exists, and adds the user ID and
// username to the request context.
func RequireAuth(jwtManager *auth.JWTManager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, auth.ErrMissingToken)
				return
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken)
				return
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken)
				return
			}

			user, err := users.GetUserByUsername(r.Context(), claims.Username)
			if err != nil {
				slog.Error("Failed to look up token owner", "username", claims.Username, "error", err)
				writeError(w, http.StatusInternalServerError, errors.New("internal error"))
				return
			}
			if !claims.Matches(user) {
				slog.Warn("Token for a deleted account", "username", claims.Username, "user_id", claims.UserID)
				writeError(w, http.StatusUnauthorized, auth.ErrAccountGone)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Username)))
		})
	}
}
