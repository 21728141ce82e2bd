package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/treasurer/internal/models"
)

const issuer = "smart-treasurer"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")

	// ErrAccountGone marks a valid token whose account was deleted, or
	// deleted and signed up again under the same username.
	ErrAccountGone = errors.New("account no longer exists")
)

// JWTManager issues and checks the session tokens that address a user's ledger.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims identify the account a token was issued to. Username addresses the
// ledger; UserID pins the token to one account under that username.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Matches reports whether the claims were issued to user, which must be the
// account currently stored under the token's username.
func (c *Claims) Matches(user *models.User) bool {
	return user != nil && user.ID == c.UserID && user.Username == c.Username
}

// NewJWTManager creates a manager signing with secret (HS256). Tokens expire ttl after issue.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate issues a token for user.
func (m *JWTManager) Generate(user *models.User) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature, issuer and expiry of token and returns its claims.
// It does not check that the account still exists; see Claims.Matches.
func (m *JWTManager) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.Username == "" {
		return nil, fmt.Errorf("%w: missing identity", ErrInvalidToken)
	}
	return claims, nil
}
