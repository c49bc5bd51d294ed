package history

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxEntries bounds the window; reaching it trims the two oldest.
const DefaultMaxEntries = 6

// placeholder seeds a fresh session list so the key exists before the first
// real turn. It is removed exactly once, on the first append.
const placeholder = "__new_session__"

// IsPlaceholder reports whether a stored entry is the session-start marker
// rather than a real turn.
func IsPlaceholder(entry string) bool { return entry == placeholder }

// Window is a bounded per-session conversation history on top of a
// ListStore. Entries are stored most recent first.
//
// A session moves through three states: absent, placeholder-only (after
// EnsureExists), and populated (after the first AppendTurn). All mutations
// and reads for one session are serialized by a per-session mutex; the
// backing store's per-command atomicity alone would leave push, placeholder
// removal and trim interleavable.
type Window struct {
	store ListStore
	max   int
	log   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWindow creates a window over the given store. maxEntries falls back to
// DefaultMaxEntries when zero or negative.
func NewWindow(store ListStore, maxEntries int, log *zap.Logger) *Window {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Window{
		store: store,
		max:   maxEntries,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

func (w *Window) lockFor(session string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[session]
	if !ok {
		l = &sync.Mutex{}
		w.locks[session] = l
	}
	return l
}

// EnsureExists seeds the session with the placeholder if it has no list yet.
// Calling it on an existing session changes nothing.
func (w *Window) EnsureExists(ctx context.Context, session string) error {
	lock := w.lockFor(session)
	lock.Lock()
	defer lock.Unlock()

	exists, err := w.store.Exists(ctx, session)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	if exists {
		return nil
	}
	if err := w.store.PushHead(ctx, session, placeholder); err != nil {
		return fmt.Errorf("seed session: %w", err)
	}
	w.log.Debug("seeded session history", zap.String("session", session))
	return nil
}

// AppendTurn prepends a turn, removes the placeholder if it is still there,
// and trims. The placeholder is only ever pushed once, so removing one
// instance after every append deletes it exactly once over the session's
// lifetime.
func (w *Window) AppendTurn(ctx context.Context, session, turn string) error {
	lock := w.lockFor(session)
	lock.Lock()
	defer lock.Unlock()

	if err := w.store.PushHead(ctx, session, turn); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	if _, err := w.store.RemoveValue(ctx, session, placeholder, 1); err != nil {
		return fmt.Errorf("remove placeholder: %w", err)
	}
	return w.trim(ctx, session)
}

// Trim drops the two oldest entries if the window has reached its bound.
func (w *Window) Trim(ctx context.Context, session string) error {
	lock := w.lockFor(session)
	lock.Lock()
	defer lock.Unlock()
	return w.trim(ctx, session)
}

func (w *Window) trim(ctx context.Context, session string) error {
	length, err := w.store.Length(ctx, session)
	if err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	if length < int64(w.max) {
		return nil
	}
	for i := 0; i < 2; i++ {
		if _, err := w.store.PopTail(ctx, session); err != nil {
			return fmt.Errorf("trim: %w", err)
		}
	}
	w.log.Debug("trimmed session history",
		zap.String("session", session), zap.Int64("was", length))
	return nil
}

// ReadAll returns the session's entries, most recent first. A session in the
// placeholder state returns the bare placeholder; filter with IsPlaceholder.
func (w *Window) ReadAll(ctx context.Context, session string) ([]string, error) {
	lock := w.lockFor(session)
	lock.Lock()
	defer lock.Unlock()

	entries, err := w.store.RangeAll(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// Clear drops the session's history entirely, returning it to the absent
// state.
func (w *Window) Clear(ctx context.Context, session string) error {
	lock := w.lockFor(session)
	lock.Lock()
	defer lock.Unlock()

	if err := w.store.Remove(ctx, session); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
