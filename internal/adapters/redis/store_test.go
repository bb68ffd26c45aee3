package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckwright/deckwright/internal/adapters/redis"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
)

func newTestStore(t *testing.T) *redis.Store {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client)
}

func TestRedisStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, newTestStore(t))
}

func TestRedisStore_ConcurrentCAS(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, domain.NewSession("race", "u1"), 0)
	require.NoError(t, err)

	a, err := store.Load(ctx, "race")
	require.NoError(t, err)
	b, err := store.Load(ctx, "race")
	require.NoError(t, err)

	// Two turns loaded the same version; exactly one save wins.
	a.Session.CurrentState = domain.StateClarify
	_, err = store.Save(ctx, a.Session, a.Version)
	require.NoError(t, err)

	b.Session.CurrentState = domain.StatePlan
	_, err = store.Save(ctx, b.Session, b.Version)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	final, err := store.Load(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, domain.StateClarify, final.Session.CurrentState)
	assert.Equal(t, int64(2), final.Version)
}
