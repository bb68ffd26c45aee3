package middleware_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckwright/deckwright/internal/adapters/memory"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/persistence/middleware"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func sampleSession() *domain.Session {
	s := domain.NewSession("sess_enc", "u1")
	s.UserInitialRequest = "a deck about onboarding"
	s.AppendTurn("user", "a deck about onboarding")
	s.AppendTurn("assistant", "A few questions first:")
	return s
}

func TestEncryption_RoundTrip(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: testKey(1)})(backing)

	ctx := context.Background()
	version, err := store.Save(ctx, sampleSession(), 0)
	require.NoError(t, err)

	vs, err := store.Load(ctx, "sess_enc")
	require.NoError(t, err)
	assert.Equal(t, version, vs.Version)
	assert.Equal(t, "a deck about onboarding", vs.Session.UserInitialRequest)
	require.Len(t, vs.Session.ConversationHistory, 2)
}

func TestEncryption_BackingStoreSeesOnlyCiphertext(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: testKey(1)})(backing)

	ctx := context.Background()
	_, err := store.Save(ctx, sampleSession(), 0)
	require.NoError(t, err)

	raw, err := backing.Load(ctx, "sess_enc")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Session.EncryptedPayload)
	assert.Empty(t, raw.Session.UserInitialRequest)
	assert.Empty(t, raw.Session.ConversationHistory)
	// Workflow state stays readable for monitoring.
	assert.Equal(t, domain.StateGreeting, raw.Session.CurrentState)
}

func TestEncryption_WrongKeyFails(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	writer := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: testKey(1)})(backing)
	_, err := writer.Save(ctx, sampleSession(), 0)
	require.NoError(t, err)

	reader := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: testKey(2)})(backing)
	_, err = reader.Load(ctx, "sess_enc")
	require.Error(t, err)
}

func TestEncryption_KeyRotationFallback(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	old := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: testKey(1)})(backing)
	_, err := old.Save(ctx, sampleSession(), 0)
	require.NoError(t, err)

	rotated := middleware.NewEncryption(middleware.EncryptionConfig{
		ActiveKey:    testKey(2),
		FallbackKeys: [][]byte{testKey(1)},
	})(backing)

	vs, err := rotated.Load(ctx, "sess_enc")
	require.NoError(t, err)
	assert.Equal(t, "a deck about onboarding", vs.Session.UserInitialRequest)
}

func TestEncryption_PlaintextRecordRejected(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	_, err := backing.Save(ctx, sampleSession(), 0)
	require.NoError(t, err)

	store := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: testKey(1)})(backing)
	_, err = store.Load(ctx, "sess_enc")
	require.Error(t, err)
}

func TestEncryption_VersionConflictPassesThrough(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: testKey(1)})(backing)

	ctx := context.Background()
	_, err := store.Save(ctx, sampleSession(), 0)
	require.NoError(t, err)

	_, err = store.Save(ctx, sampleSession(), 0)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestEncryption_ShortKeyPanics(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}
