package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Flusher coalesces bursts of changes into one save. MarkDirty arms a timer
// that fires delay after the last change; Flush saves immediately. save must
// snapshot the state it writes when it is called, so the last flush after the
// last change always stores the latest state.
type Flusher struct {
	delay time.Duration
	save  func(ctx context.Context) error

	// saveMu serializes saves so an older snapshot never lands after a newer one.
	saveMu sync.Mutex

	mu     sync.Mutex
	dirty  bool
	timer  *time.Timer
	closed bool
}

// NewFlusher returns a Flusher that calls save at most once per quiet period of delay.
func NewFlusher(delay time.Duration, save func(ctx context.Context) error) *Flusher {
	return &Flusher{delay: delay, save: save}
}

// MarkDirty records a change and (re)starts the debounce timer.
func (f *Flusher) MarkDirty() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirty = true
	if f.closed {
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, func() {
		if err := f.Flush(context.Background()); err != nil {
			slog.Error("Scheduled save failed", "error", err)
		}
	})
}

// Dirty reports whether changes are waiting to be saved.
func (f *Flusher) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

// Flush saves now if anything changed. A failed save leaves the flusher
// dirty so the next flush retries it.
func (f *Flusher) Flush(ctx context.Context) error {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	f.mu.Lock()
	if !f.dirty {
		f.mu.Unlock()
		return nil
	}
	f.dirty = false
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()

	if err := f.save(ctx); err != nil {
		f.mu.Lock()
		f.dirty = true
		f.mu.Unlock()
		return err
	}
	return nil
}

// Close stops the timer and performs a final flush. Later MarkDirty calls
// only set the flag.
func (f *Flusher) Close(ctx context.Context) error {
	f.mu.Lock()
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()
	return f.Flush(ctx)
}

// Reopen undoes Close. Pending changes are scheduled again.
func (f *Flusher) Reopen() {
	f.mu.Lock()
	f.closed = false
	dirty := f.dirty
	f.mu.Unlock()
	if dirty {
		f.MarkDirty()
	}
}

// Discard drops pending changes without saving. It waits for a save already
// in progress to finish.
func (f *Flusher) Discard() {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.dirty = false
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
