package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/deckwright/deckwright/internal/logging"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
)

// Manager orchestrates session access: cache-aside reads, compare-and-swap
// writes, cache invalidation on every successful save. It is an explicit
// handle passed into the state machine, never a package-level singleton.
// Starts with an empty cache; Flush drops it on shutdown.
type Manager struct {
	store ports.SessionStore

	mu    sync.RWMutex
	cache map[string]*ports.VersionedSession

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session Manager backed by the given durable store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		cache:  make(map[string]*ports.VersionedSession),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load retrieves a session, serving from cache when possible. The returned
// value is a copy; mutations only take effect through Save.
func (m *Manager) Load(ctx context.Context, sessionID string) (*ports.VersionedSession, error) {
	m.mu.RLock()
	cached, ok := m.cache[sessionID]
	m.mu.RUnlock()
	if ok {
		return &ports.VersionedSession{Session: cached.Session.Clone(), Version: cached.Version}, nil
	}

	vs, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[sessionID] = &ports.VersionedSession{Session: vs.Session.Clone(), Version: vs.Version}
	m.mu.Unlock()

	return vs, nil
}

// LoadOrStart loads a session or creates a fresh one in GREETING on first
// contact. Creation races are resolved by the store's CAS: the loser reloads
// the winner's session.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID, userID string) (*ports.VersionedSession, error) {
	vs, err := m.Load(ctx, sessionID)
	if err == nil {
		return vs, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	sess := domain.NewSession(sessionID, userID)
	version, err := m.Save(ctx, sess, 0)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			// Someone else created it first; use theirs.
			return m.Load(ctx, sessionID)
		}
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	// Warm the cache with the session just created, so the first read after
	// creation does not hit the durable store. A concurrent save would
	// invalidate this entry like any other.
	m.mu.Lock()
	m.cache[sessionID] = &ports.VersionedSession{Session: sess.Clone(), Version: version}
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", sessionID, "user_id", userID)
	return &ports.VersionedSession{Session: sess, Version: version}, nil
}

// Save persists the session through the store's compare-and-swap and
// invalidates the cache entry on success, so the next Load repopulates from
// durable storage.
func (m *Manager) Save(ctx context.Context, sess *domain.Session, expectedVersion int64) (int64, error) {
	version, err := m.store.Save(ctx, sess, expectedVersion)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			// Our cached copy is stale too.
			m.invalidate(sess.ID)
		}
		return 0, err
	}

	m.invalidate(sess.ID)
	return version, nil
}

// Delete removes the session from the store and the cache.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	m.invalidate(sessionID)
	return nil
}

// List returns the ids of known sessions from the durable store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Flush drops every cache entry. Called on shutdown; durable state is
// unaffected.
func (m *Manager) Flush() {
	m.mu.Lock()
	m.cache = make(map[string]*ports.VersionedSession)
	m.mu.Unlock()
}

func (m *Manager) invalidate(sessionID string) {
	m.mu.Lock()
	delete(m.cache, sessionID)
	m.mu.Unlock()
}
