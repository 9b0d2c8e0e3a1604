package tokenstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	rec := Record{Token: "t1", Username: "alice", IsAdmin: true, SavedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, store.Save(ctx, rec))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	rec.Token = "t2"
	require.NoError(t, store.Save(ctx, rec))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Token)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Clear(ctx), "clearing twice is not an error")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
	var zero MemoryStore
	exerciseStore(t, &zero)
}

func TestBoltStore(t *testing.T) {
	store, err := OpenBolt(filepath.Join(t.TempDir(), "sessions.db"), "default")
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, "default", store.Profile())
	exerciseStore(t, store)
}

func TestBoltStoreProfilesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	prod, err := OpenBolt(path, "prod")
	require.NoError(t, err)
	require.NoError(t, prod.Save(ctx, Record{Token: "p"}))
	require.NoError(t, prod.Close())

	staging, err := OpenBolt(path, "staging")
	require.NoError(t, err)
	defer staging.Close()
	_, err = staging.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, staging.Save(ctx, Record{Token: "s"}))

	profiles, err := staging.Profiles()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prod", "staging"}, profiles)

	rec, err := staging.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s", rec.Token)
	assert.False(t, rec.SavedAt.IsZero(), "save stamps records without a timestamp")
}

func TestOpenBoltRequiresProfile(t *testing.T) {
	_, err := OpenBolt(filepath.Join(t.TempDir(), "sessions.db"), " ")
	assert.ErrorContains(t, err, "profile required")
}
