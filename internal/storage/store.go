// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/treasurer/internal/models"
)

// ErrUserExists is returned by CreateUser when the username is taken.
var ErrUserExists = errors.New("username already exists")

// Store defines the persistence operations for accounts and their ledgers.
// A ledger is stored as an opaque JSON blob keyed by username; the
// migrate package is the only code that interprets it.
type Store interface {
	// CreateUser persists a new user. user.ID is assigned by the store if empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername returns nil and no error if the user does not exist.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// DeleteUser removes the account together with its ledger and any legacy
	// student blob.
	DeleteUser(ctx context.Context, username string) error

	// LoadLedger returns the current ledger blob and the legacy student blob
	// written by older versions. Either is nil when absent.
	LoadLedger(ctx context.Context, username string) (current, legacy []byte, err error)

	// SaveLedger replaces the user's current ledger blob.
	SaveLedger(ctx context.Context, username string, data []byte) error

	// DeleteLegacy drops the legacy student blob once it has been migrated.
	DeleteLegacy(ctx context.Context, username string) error

	// Close releases any resources held by the store.
	Close() error
}
