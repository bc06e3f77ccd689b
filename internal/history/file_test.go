package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Load(ctx))

	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, "https://example.com/a", now))
	require.NoError(t, store.Record(ctx, "https://example.com/b", now))
	require.True(t, store.Contains("https://example.com/a"))
	require.False(t, store.Contains("https://example.com/c"))
	require.NoError(t, store.Persist(ctx))
	store.Close()

	reloaded, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, reloaded.Load(ctx))
	defer reloaded.Close()

	require.Equal(t, 2, reloaded.Len())
	require.True(t, reloaded.Contains("https://example.com/a"))
	require.Equal(t, now, reloaded.Entries()["https://example.com/b"])
}

func TestFileStoreRecordIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Load(ctx))
	defer store.Close()

	first := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	require.NoError(t, store.Record(ctx, "https://example.com/a", first))
	require.NoError(t, store.Record(ctx, "https://example.com/a", second))

	require.Equal(t, 1, store.Len())
	require.Equal(t, second, store.Entries()["https://example.com/a"])
}

func TestFileStoreReset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Load(ctx))
	defer store.Close()

	require.NoError(t, store.Record(ctx, "https://example.com/a", time.Now()))
	require.NoError(t, store.Reset(ctx))
	require.Zero(t, store.Len())

	// Reset persists the empty set.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "{}", string(data))
}

func TestFileStoreLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	defer store.Close()
	require.Zero(t, store.Len())
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	require.Error(t, store.Load(context.Background()))
}

func TestFileStorePersistLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	ctx := context.Background()

	store, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Load(ctx))
	defer store.Close()

	require.NoError(t, store.Record(ctx, "https://example.com/a", time.Now()))
	require.NoError(t, store.Persist(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"history.json", "history.json.lock"}, names)
}
