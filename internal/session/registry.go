package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/classifier/internal/model"
)

// DefaultTTL is how long an idle browser session is kept.
const DefaultTTL = 2 * time.Hour

// Entry is one browser session: its Store plus bookkeeping the handlers need.
type Entry struct {
	Token string
	Store *Store

	mu                sync.Mutex
	lastSeen          time.Time
	commentary        string
	commentaryVersion uint64
}

// Commentary returns the cached results commentary if it was produced for
// the given store version.
func (e *Entry) Commentary(version uint64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.commentary == "" || e.commentaryVersion != version {
		return "", false
	}
	return e.commentary, true
}

// SetCommentary caches text for the given store version.
func (e *Entry) SetCommentary(version uint64, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commentary = text
	e.commentaryVersion = version
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

func (e *Entry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.lastSeen)
}

// Registry keeps every live browser session in memory. Nothing survives a
// restart.
type Registry struct {
	tests []model.Test
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	entries  map[string]*Entry
	observer func(token string, ev Event)
}

// NewRegistry creates a registry whose stores all share the given catalog.
// A non-positive ttl selects DefaultTTL.
func NewRegistry(tests []model.Test, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		tests:   tests,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
}

// Observe sets a function called for every event of every store created
// afterwards.
func (r *Registry) Observe(fn func(token string, ev Event)) {
	r.mu.Lock()
	r.observer = fn
	r.mu.Unlock()
}

// Tests returns the catalog shared by all sessions.
func (r *Registry) Tests() []model.Test {
	return r.tests
}

// Create starts a new session with a fresh random token.
func (r *Registry) Create() *Entry {
	e := &Entry{
		Token:    uuid.NewString(),
		Store:    New(r.tests),
		lastSeen: r.now(),
	}

	r.mu.Lock()
	r.entries[e.Token] = e
	observer := r.observer
	n := len(r.entries)
	r.mu.Unlock()

	if observer != nil {
		token := e.Token
		e.Store.Subscribe(func(ev Event) { observer(token, ev) })
	}
	slog.Debug("session created", "token", shortToken(e.Token), "live", n)
	return e
}

// Get returns the session for token and marks it as used, or nil if it
// does not exist or has expired.
func (r *Registry) Get(token string) *Entry {
	if token == "" {
		return nil
	}
	now := r.now()

	r.mu.Lock()
	e, ok := r.entries[token]
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if e.idleSince(now) > r.ttl {
		r.Delete(token)
		return nil
	}
	e.touch(now)
	return e
}

// Delete removes a session.
func (r *Registry) Delete(token string) {
	r.mu.Lock()
	delete(r.entries, token)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for token, e := range r.entries {
		if e.idleSince(now) > r.ttl {
			delete(r.entries, token)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				slog.Info("expired sessions removed", "count", n, "live", r.Len())
			}
		}
	}
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

type entryCtxKey struct{}

// NewContext stores a session entry in the context.
func NewContext(ctx context.Context, e *Entry) context.Context {
	return context.WithValue(ctx, entryCtxKey{}, e)
}

// FromContext retrieves the session entry from context, or nil.
func FromContext(ctx context.Context) *Entry {
	e, _ := ctx.Value(entryCtxKey{}).(*Entry)
	return e
}
