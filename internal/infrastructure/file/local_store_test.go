package file_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohammadpnp/jobposting-import/internal/infrastructure/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveOpenRemove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := file.NewLocalStore(dir, 0)

	stored, err := store.Save(context.Background(), "Jobs.CSV", strings.NewReader("title\nGo Engineer\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(18), stored.Size)
	assert.Equal(t, ".csv", filepath.Ext(stored.Path))
	assert.Len(t, stored.Checksum, 16)

	reader, err := store.Open(context.Background(), stored.Path)
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	assert.Equal(t, "title\nGo Engineer\n", string(content))

	require.NoError(t, store.Remove(context.Background(), stored.Path))
	_, err = os.Stat(filepath.Join(dir, stored.Path))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Remove(context.Background(), stored.Path), "removing twice is not an error")
}

func TestLocalStoreSameContentSameChecksum(t *testing.T) {
	t.Parallel()

	store := file.NewLocalStore(t.TempDir(), 0)

	a, err := store.Save(context.Background(), "a.json", strings.NewReader(`[{"title":"x"}]`))
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "b.json", strings.NewReader(`[{"title":"x"}]`))
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path)
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestLocalStoreRejectsOversizedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := file.NewLocalStore(dir, 4)

	_, err := store.Save(context.Background(), "big.csv", strings.NewReader("0123456789"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
