package memory

import (
	"context"
	"sync"

	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
)

type entry struct {
	session *domain.Session
	version int64
}

// Store implements ports.SessionStore in memory.
// Safe for concurrent use. Used by tests and the --memory dev mode.
type Store struct {
	data map[string]*entry
	mu   sync.Mutex
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{data: make(map[string]*entry)}
}

// Load retrieves the session and its version.
func (s *Store) Load(ctx context.Context, sessionID string) (*ports.VersionedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// Copy on read so callers can't mutate store state through the pointer.
	return &ports.VersionedSession{Session: e.session.Clone(), Version: e.version}, nil
}

// Save persists the session under compare-and-swap semantics.
func (s *Store) Save(ctx context.Context, session *domain.Session, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[session.ID]
	switch {
	case expectedVersion == 0 && exists:
		return 0, domain.ErrVersionConflict
	case expectedVersion > 0 && !exists:
		return 0, domain.ErrSessionNotFound
	case expectedVersion > 0 && e.version != expectedVersion:
		return 0, domain.ErrVersionConflict
	}

	next := expectedVersion + 1
	s.data[session.ID] = &entry{session: session.Clone(), version: next}
	return next, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns known session ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
