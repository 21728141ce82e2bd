// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/treasurer/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadLedger reads both blobs for username. Missing rows yield nil slices.
func (s *SQLiteStore) LoadLedger(ctx context.Context, username string) ([]byte, []byte, error) {
	current, err := s.blob(ctx, "SELECT data FROM ledgers WHERE username = ?", username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	legacy, err := s.blob(ctx, "SELECT data FROM legacy_students WHERE username = ?", username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load legacy students: %w", err)
	}
	return current, legacy, nil
}

func (s *SQLiteStore) blob(ctx context.Context, query, username string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, query, username).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SaveLedger upserts the ledger blob for username.
func (s *SQLiteStore) SaveLedger(ctx context.Context, username string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledgers (username, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, username, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// SaveLegacy stores a flat student list the way older versions did. It is
// used to seed data for migration; the service never writes legacy blobs.
func (s *SQLiteStore) SaveLegacy(ctx context.Context, username string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO legacy_students (username, data) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET data = excluded.data
	`, username, data)
	if err != nil {
		return fmt.Errorf("failed to save legacy students: %w", err)
	}
	return nil
}

// DeleteLegacy removes the legacy student blob, if any.
func (s *SQLiteStore) DeleteLegacy(ctx context.Context, username string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM legacy_students WHERE username = ?", username); err != nil {
		return fmt.Errorf("failed to delete legacy students: %w", err)
	}
	return nil
}
