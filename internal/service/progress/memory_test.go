package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	s, err := store.Start(ctx, "sess-1", "u1", "download", 2)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s.Status)
	assert.Equal(t, 2, s.Total)

	_, err = store.Start(ctx, "sess-1", "u1", "download", 2)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))

	_, err = store.Update(ctx, "sess-1", ItemState{ID: "a", Outcome: "succeeded"})
	require.NoError(t, err)
	s, err = store.Update(ctx, "sess-1", ItemState{ID: "b", Outcome: "failed", Error: "boom"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Processed)
	assert.Len(t, s.Items, 2)

	s, err = store.Finish(ctx, "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, s.Status)
	assert.True(t, s.Done())

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Processed)

	// a finished session id may be reused
	_, err = store.Start(ctx, "sess-1", "u1", "delete", 1)
	require.NoError(t, err)
}

func TestMemoryStore_FinishWithError(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	_, err := store.Start(ctx, "sess-2", "u1", "mp3", 1)
	require.NoError(t, err)

	s, err := store.Finish(ctx, "sess-2", errors.New("datastore unavailable"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "datastore unavailable", s.Error)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Start(ctx, "sess-3", "u1", "download", 1)
	require.NoError(t, err)
	_, err = store.Finish(ctx, "sess-3", nil)
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = store.Get(ctx, "sess-3")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = store.Get(ctx, "sess-3")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	_, err := store.Start(ctx, "sess-4", "u1", "download", 1)
	require.NoError(t, err)
	s, err := store.Update(ctx, "sess-4", ItemState{ID: "a", Outcome: "succeeded"})
	require.NoError(t, err)
	s.Items[0].Outcome = "tampered"

	got, err := store.Get(ctx, "sess-4")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", got.Items[0].Outcome)
}

func TestMemoryStore_UnknownSession(t *testing.T) {
	store := NewMemoryStore(0)
	_, err := store.Update(context.Background(), "nope", ItemState{ID: "a"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
