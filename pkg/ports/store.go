package ports

import (
	"context"

	"github.com/deckwright/deckwright/pkg/domain"
)

// VersionedSession pairs a session with the monotonically increasing version
// counter stored alongside it.
type VersionedSession struct {
	Session *domain.Session
	Version int64
}

// SessionStore persists sessions with compare-and-swap semantics. Every
// mutation goes through Save with the version observed at Load; two
// concurrent turns on the same session cannot silently overwrite each other.
type SessionStore interface {
	// Load retrieves the session and its current version.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*VersionedSession, error)

	// Save persists the session if the stored version equals expectedVersion
	// and returns the new version. expectedVersion 0 creates the session and
	// fails if it already exists. Returns domain.ErrVersionConflict on a
	// compare-and-swap miss.
	Save(ctx context.Context, session *domain.Session, expectedVersion int64) (int64, error)

	// Delete removes the session. Retention policy is external; the core
	// never calls this on its own.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of known sessions.
	List(ctx context.Context) ([]string, error)
}
