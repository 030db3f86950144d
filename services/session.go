package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/justbri/marquee/config"
)

const (
	sessionName = "marquee-session"
	visitorKey  = "visitor_id"
)

// ErrNoBrowser is returned when a request context carries no browser.
var ErrNoBrowser = errors.New("no browser attached to request")

// NewSessionStore builds the cookie store that remembers a visitor id.
func NewSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))

	secure := false
	if cfg.Environment == "production" {
		secure = true
	}

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// VisitorID returns the visitor id from the session cookie, issuing a new
// one (and saving the cookie) when absent.
func VisitorID(w http.ResponseWriter, r *http.Request, store sessions.Store) (string, error) {
	// A cookie that fails to decode (e.g. after a secret rotation) still
	// yields a fresh session to write over it.
	session, err := store.Get(r, sessionName)
	if err != nil && session == nil {
		return "", err
	}

	if id, ok := session.Values[visitorKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	session.Values[visitorKey] = id
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// BrowserFactory builds the browser for a new visitor.
type BrowserFactory func(ctx context.Context, visitor string) (*Browser, error)

// NewBrowserFactory wires a browser to the metadata source and favorites
// repository, restores saved favorites and starts it.
func NewBrowserFactory(source MovieSource, favorites FavoritesRepository, cfg BrowserConfig) BrowserFactory {
	return func(ctx context.Context, visitor string) (*Browser, error) {
		saved, err := favorites.List(ctx, visitor)
		if err != nil {
			return nil, err
		}
		store := NewStore()
		store.SetFavorites(saved)

		b := NewBrowser(visitor, source, store, favorites, cfg)
		b.Start()
		return b, nil
	}
}

type registryEntry struct {
	browser  *Browser
	lastSeen time.Time
}

// Registry maps visitor ids to their live browser.
type Registry struct {
	factory BrowserFactory
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
	closed  bool
}

func NewRegistry(factory BrowserFactory) *Registry {
	return &Registry{
		factory: factory,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the visitor's browser, creating and starting it on first use.
// The factory runs without the registry lock; when two requests race to
// create the same visitor's browser, the first one stored wins.
func (r *Registry) Get(ctx context.Context, visitor string) (*Browser, error) {
	if b, ok, err := r.lookup(visitor); ok || err != nil {
		return b, err
	}

	b, err := r.factory(ctx, visitor)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		b.Close()
		return nil, ErrClosed
	}
	if e, ok := r.entries[visitor]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		b.Close()
		return e.browser, nil
	}
	r.entries[visitor] = &registryEntry{browser: b, lastSeen: r.now()}
	active := len(r.entries)
	r.mu.Unlock()

	slog.Debug("Browser created", "visitor", visitor, "active", active)
	return b, nil
}

func (r *Registry) lookup(visitor string) (*Browser, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrClosed
	}
	if e, ok := r.entries[visitor]; ok {
		e.lastSeen = r.now()
		return e.browser, true, nil
	}
	return nil, false, nil
}

// Len is the number of live browsers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes browsers not used within idle and returns how many it closed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Browser
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.browser)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, b := range stale {
		b.Close()
	}
	if len(stale) > 0 {
		slog.Info("Closed idle browsers", "count", len(stale))
	}
	return len(stale)
}

// RunSweeper sweeps every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

// Close tears down every browser; Get fails afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.browser.Close()
	}
}

type browserKey struct{}

// WithBrowser attaches b, and its store, to ctx.
func WithBrowser(ctx context.Context, b *Browser) context.Context {
	ctx = context.WithValue(ctx, browserKey{}, b)
	return WithStore(ctx, b.Store())
}

func BrowserFromContext(ctx context.Context) (*Browser, error) {
	b, ok := ctx.Value(browserKey{}).(*Browser)
	if !ok || b == nil {
		return nil, ErrNoBrowser
	}
	return b, nil
}
