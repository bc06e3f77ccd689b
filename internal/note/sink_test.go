package note

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFSSinkWrite(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFSSink(dir, zap.NewNop())
	require.NoError(t, err)

	name, err := sink.Write(context.Background(), "My_Note", []byte("body"))
	require.NoError(t, err)
	assert.Equal(t, "My_Note.md", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "body", string(data))
}

func TestFSSinkCollisionSuffixes(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFSSink(dir, zap.NewNop())
	require.NoError(t, err)

	first, err := sink.Write(context.Background(), "Same_Title", []byte("one"))
	require.NoError(t, err)
	second, err := sink.Write(context.Background(), "Same_Title", []byte("two"))
	require.NoError(t, err)
	third, err := sink.Write(context.Background(), "Same_Title", []byte("three"))
	require.NoError(t, err)

	assert.Equal(t, "Same_Title.md", first)
	assert.Equal(t, "Same_Title_2.md", second)
	assert.Equal(t, "Same_Title_3.md", third)

	for name, want := range map[string]string{first: "one", second: "two", third: "three"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

func TestFSSinkCollisionWithExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Held.md"), []byte("old"), 0o640))

	sink, err := NewFSSink(dir, zap.NewNop())
	require.NoError(t, err)

	name, err := sink.Write(context.Background(), "Held", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "Held_2.md", name)

	data, err := os.ReadFile(filepath.Join(dir, "Held.md"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "existing note must not be overwritten")
}

func TestFSSinkConcurrentWritersGetDistinctNames(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFSSink(dir, zap.NewNop())
	require.NoError(t, err)

	const writers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		names = make(map[string]struct{})
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := sink.Write(context.Background(), "Popular", []byte("x"))
			assert.NoError(t, err)
			mu.Lock()
			names[name] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, names, writers)
}

func TestFSSinkCanceledContext(t *testing.T) {
	sink, err := NewFSSink(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sink.Write(ctx, "Note", []byte("x"))
	assert.Error(t, err)
}

func TestFSSinkLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFSSink(dir, zap.NewNop())
	require.NoError(t, err)

	_, err = sink.Write(context.Background(), "Clean", []byte("x"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".note-")
	}
}
