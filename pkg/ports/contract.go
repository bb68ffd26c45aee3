package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckwright/deckwright/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract, including the
// compare-and-swap behavior every adapter must provide.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Create and Load", func(t *testing.T) {
		sess := domain.NewSession(sessionID, "user-1")
		sess.UserInitialRequest = "AI in healthcare"

		v, err := store.Save(ctx, sess, 0)
		require.NoError(t, err, "initial Save should not return error")
		assert.Equal(t, int64(1), v)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), loaded.Version)
		assert.Equal(t, domain.StateGreeting, loaded.Session.CurrentState)
		assert.Equal(t, "AI in healthcare", loaded.Session.UserInitialRequest)
	})

	t.Run("Create Existing Conflicts", func(t *testing.T) {
		_, err := store.Save(ctx, domain.NewSession(sessionID, "user-1"), 0)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})

	t.Run("CAS Save", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)

		loaded.Session.CurrentState = domain.StateClarify
		v, err := store.Save(ctx, loaded.Session, loaded.Version)
		require.NoError(t, err)
		assert.Equal(t, loaded.Version+1, v)

		// A second save against the stale version must conflict and must not
		// apply its effects.
		loaded.Session.CurrentState = domain.StatePlan
		_, err = store.Save(ctx, loaded.Session, loaded.Version)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		reloaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateClarify, reloaded.Session.CurrentState)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID))
		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_, err := store.Save(ctx, domain.NewSession(id1, "user-1"), 0)
		require.NoError(t, err)
		_, err = store.Save(ctx, domain.NewSession(id2, "user-2"), 0)
		require.NoError(t, err)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
