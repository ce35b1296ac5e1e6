package objectstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := New(t.TempDir(), "http://localhost:8080/files/")
	require.NoError(t, err)

	key, size, err := store.Save(context.Background(), "user-1", "resume.pdf", strings.NewReader("file contents"))
	require.NoError(t, err)

	assert.Equal(t, int64(len("file contents")), size)
	assert.True(t, strings.HasPrefix(key, "user-1/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	reader, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
}

func TestSaveGeneratesUniqueKeys(t *testing.T) {
	store, err := New(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		key, _, err := store.Save(context.Background(), "user-1", "a.txt", strings.NewReader("x"))
		require.NoError(t, err)
		assert.False(t, seen[key], "key %q repeated", key)
		seen[key] = true
	}
}

func TestPublicURL(t *testing.T) {
	store, err := New(t.TempDir(), "http://localhost:8080/files/")
	require.NoError(t, err)

	// Trailing slash on the base must not double up.
	assert.Equal(t, "http://localhost:8080/files/user-1/abc.png", store.PublicURL("user-1/abc.png"))
}

func TestRemove(t *testing.T) {
	store, err := New(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	key, _, err := store.Save(context.Background(), "user-1", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(context.Background(), key))

	_, err = store.Open(context.Background(), key)
	assert.Error(t, err)

	// Removing again is fine.
	assert.NoError(t, store.Remove(context.Background(), key))
}

func TestSaveCancelledContext(t *testing.T) {
	store, err := New(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = store.Save(ctx, "user-1", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
