package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/storage"
)

// AuthService handles account signup, login, logout and deletion.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	sessions      *Sessions
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, sessions *Sessions) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		sessions:      sessions,
	}
}

// Signup creates an account and returns it with a session token.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*models.User, string, error) {
	slog.Info("Signup request", "username", username)

	user, err := s.authenticator.Register(ctx, username, password)
	if err != nil {
		slog.Warn("Registration failed", "username", username, "error", err)
		return nil, "", err
	}

	// a session still open under this username belonged to a deleted account
	s.sessions.Discard(user.Username)

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	slog.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Login verifies credentials, loads the user's ledger and returns a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	slog.Info("Login request", "username", username)

	user, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		slog.Warn("Login failed", "username", username, "error", err)
		return nil, "", err
	}

	if _, err := s.sessions.Get(ctx, user.Username); err != nil {
		slog.Error("Failed to load ledger", "username", user.Username, "error", err)
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	slog.Info("User logged in successfully", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Logout saves and unloads the user's ledger.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	if err := s.sessions.Close(ctx, username); err != nil {
		slog.Error("Logout save failed", "username", username, "error", err)
		return err
	}
	slog.Info("User logged out", "username", username)
	return nil
}

// DeleteAccount drops the loaded ledger and removes the user with all of
// their stored data.
func (s *AuthService) DeleteAccount(ctx context.Context, username string) error {
	s.sessions.Discard(username)
	if err := s.store.DeleteUser(ctx, username); err != nil {
		slog.Error("Account deletion failed", "username", username, "error", err)
		return fmt.Errorf("failed to delete account: %w", err)
	}
	slog.Info("Account deleted", "username", username)
	return nil
}
