// Package service owns the in-memory ledgers of logged-in users and keeps
// them in sync with storage.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/metrics"
	"github.com/mmynk/treasurer/internal/migrate"
	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/spreadsheet"
	"github.com/mmynk/treasurer/internal/storage"
)

// ErrSessionClosed is returned by Update on a session that was closed or
// discarded after the caller obtained it. Callers fetch a fresh session from
// Sessions and try again.
var ErrSessionClosed = errors.New("session closed")

// Session is one user's loaded ledger. All access goes through View and
// Update, which hold the session lock, so mutations never interleave.
type Session struct {
	username string
	store    storage.Store
	importer *spreadsheet.Importer
	flusher  *Flusher

	mu     sync.Mutex
	ledger *ledger.Ledger
	closed bool

	// legacyPending is set when the ledger was built from a legacy blob that
	// must be deleted after the migrated ledger is saved.
	legacyPending bool
}

// Username returns the owner of the session.
func (s *Session) Username() string {
	return s.username
}

// View runs fn with the ledger locked. fn must not keep the pointer.
func (s *Session) View(fn func(l *ledger.Ledger)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ledger)
}

// Update runs fn with the ledger locked and schedules a save if fn succeeds.
// Ledger operations validate before mutating, so a failed fn changed nothing.
// A closed session runs nothing and returns ErrSessionClosed.
func (s *Session) Update(fn func(l *ledger.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := fn(s.ledger); err != nil {
		return err
	}
	// marked under the lock so a concurrent close either sees the change or
	// rejects it
	s.flusher.MarkDirty()
	return nil
}

// markClosed makes later Updates fail. Updates already done are dirty in
// the flusher by the time it returns.
func (s *Session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// reopen undoes markClosed after a failed final save.
func (s *Session) reopen() {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
	s.flusher.Reopen()
}

// Flush writes pending changes now.
func (s *Session) Flush(ctx context.Context) error {
	return s.flusher.Flush(ctx)
}

// save snapshots the ledger and writes it. It is the Flusher's save function.
func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	data := s.ledger.Data()
	deleteLegacy := s.legacyPending
	s.mu.Unlock()

	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	err = s.store.SaveLedger(ctx, s.username, blob)
	metrics.LedgerSaves.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	slog.Debug("Ledger saved", "username", s.username, "bytes", len(blob))

	if deleteLegacy {
		if err := s.store.DeleteLegacy(ctx, s.username); err != nil {
			// the migrated ledger is stored, so a retry on the next save is enough
			slog.Warn("Legacy data delete failed", "username", s.username, "error", err)
			return nil
		}
		s.mu.Lock()
		s.legacyPending = false
		s.mu.Unlock()
		slog.Info("Legacy data removed after migration", "username", s.username)
	}
	return nil
}

// Sessions holds the loaded ledger of every logged-in user.
type Sessions struct {
	store      storage.Store
	debounce   time.Duration
	importer   *spreadsheet.Importer
	ledgerOpts []ledger.Option

	mu   sync.Mutex
	open map[string]*Session

	// unloading holds users whose session is being closed or discarded. Get
	// waits on the channel so it never loads storage while a final save of the
	// same ledger is still in flight.
	unloading map[string]chan struct{}
}

// SessionsOption configures Sessions.
type SessionsOption func(*Sessions)

// WithLedgerOptions passes options (clock, ID generator) to every loaded ledger.
func WithLedgerOptions(opts ...ledger.Option) SessionsOption {
	return func(m *Sessions) { m.ledgerOpts = append(m.ledgerOpts, opts...) }
}

// WithImporter replaces the default spreadsheet importer.
func WithImporter(im *spreadsheet.Importer) SessionsOption {
	return func(m *Sessions) { m.importer = im }
}

// NewSessions creates a session registry that saves changes debounce after
// the last mutation.
func NewSessions(store storage.Store, debounce time.Duration, opts ...SessionsOption) *Sessions {
	m := &Sessions{
		store:     store,
		debounce:  debounce,
		importer:  spreadsheet.NewImporter(),
		open:      make(map[string]*Session),
		unloading: make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the user's session, loading and migrating the stored ledger on
// first use. Unreadable stored data yields a fresh ledger; the stored blob is
// left alone until the next change is saved over it.
func (m *Sessions) Get(ctx context.Context, username string) (*Session, error) {
	m.mu.Lock()
	for {
		if s, ok := m.open[username]; ok {
			m.mu.Unlock()
			return s, nil
		}
		done, busy := m.unloading[username]
		if !busy {
			break
		}
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		m.mu.Lock()
	}
	defer m.mu.Unlock()

	current, legacy, err := m.store.LoadLedger(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	s := &Session{username: username, store: m.store, importer: m.importer}
	s.flusher = NewFlusher(m.debounce, s.save)

	res, err := migrate.Migrate(current, legacy)
	switch {
	case errors.Is(err, models.ErrCorruptData):
		slog.Error("Stored ledger unreadable, starting empty", "username", username, "error", err)
		s.ledger = ledger.New(models.NewLedgerData(), m.ledgerOpts...)
	case err != nil:
		return nil, err
	default:
		s.ledger = ledger.New(res.Data, m.ledgerOpts...)
		s.legacyPending = res.LegacyConsumed
		if res.Changed {
			slog.Info("Ledger migrated",
				"username", username,
				"seeded", res.Seeded,
				"legacy", res.LegacyConsumed,
			)
			s.flusher.MarkDirty()
		}
	}

	m.open[username] = s
	metrics.ActiveSessions.Set(float64(len(m.open)))
	return s, nil
}

// unload takes the user's session out of the registry and runs fn on it.
// Get calls for the user block until fn returns. fn returning false puts the
// session back.
func (m *Sessions) unload(username string, fn func(s *Session) (keep bool)) {
	m.mu.Lock()
	s, ok := m.open[username]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.open, username)
	done := make(chan struct{})
	m.unloading[username] = done
	m.mu.Unlock()

	keep := fn(s)

	m.mu.Lock()
	delete(m.unloading, username)
	if keep {
		m.open[username] = s
	}
	metrics.ActiveSessions.Set(float64(len(m.open)))
	m.mu.Unlock()
	close(done)
}

// Close flushes and unloads the user's session (logout). Closing a user
// without a session is a no-op. When the final save fails the session stays
// loaded with its changes pending, so nothing acknowledged is lost.
func (m *Sessions) Close(ctx context.Context, username string) error {
	var err error
	m.unload(username, func(s *Session) bool {
		s.markClosed()
		if err = s.flusher.Close(ctx); err != nil {
			s.reopen()
			return true
		}
		return false
	})
	if err != nil {
		return fmt.Errorf("failed to save ledger on close: %w", err)
	}
	return nil
}

// Discard unloads the user's session without saving.
func (m *Sessions) Discard(username string) {
	m.unload(username, func(s *Session) bool {
		s.markClosed()
		s.flusher.Discard()
		return false
	})
}

// Update applies fn to the user's ledger. When the session is closed between
// lookup and update (a concurrent logout), the ledger is reloaded from storage
// and fn runs against the fresh session.
func (m *Sessions) Update(ctx context.Context, username string, fn func(l *ledger.Ledger) error) error {
	return m.retry(ctx, username, func(s *Session) error { return s.Update(fn) })
}

// maxSessionAttempts bounds how often an update follows a session that keeps
// being closed underneath it.
const maxSessionAttempts = 3

// retry runs fn against the user's session, again on a fresh session if the
// one it got was closed underneath it.
func (m *Sessions) retry(ctx context.Context, username string, fn func(s *Session) error) error {
	for attempt := 1; ; attempt++ {
		s, err := m.Get(ctx, username)
		if err != nil {
			return err
		}
		err = fn(s)
		if errors.Is(err, ErrSessionClosed) && attempt < maxSessionAttempts {
			slog.Debug("Session closed during update, reloading", "username", username)
			continue
		}
		return err
	}
}

// FlushAll writes every session's pending changes. Sessions stay loaded.
func (m *Sessions) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.open))
	for _, s := range m.open {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Flush(ctx); err != nil {
			slog.Error("Save on flush failed", "username", s.username, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.username, err))
		}
	}
	return errors.Join(errs...)
}
