package keyfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ReadKey(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "keys"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keys", "release.pub"), []byte("PUBLIC KEY"), 0o600))

	store, err := NewStore(root, 8)
	require.NoError(t, err)

	key, err := store.ReadKey("keys/release.pub")
	require.NoError(t, err)
	assert.Equal(t, []byte("PUBLIC KEY"), key)
}

func TestStore_ReadKeyCaches(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "release.pub")
	require.NoError(t, os.WriteFile(path, []byte("FIRST"), 0o600))

	store, err := NewStore(root, 8)
	require.NoError(t, err)

	key, err := store.ReadKey("release.pub")
	require.NoError(t, err)
	assert.Equal(t, []byte("FIRST"), key)

	// Replacing the file on disk must not change what a running batch
	// sees; the cached content wins.
	require.NoError(t, os.WriteFile(path, []byte("SECOND"), 0o600))

	key, err = store.ReadKey("release.pub")
	require.NoError(t, err)
	assert.Equal(t, []byte("FIRST"), key)
}

func TestStore_NotFound(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir(), 8)
	require.NoError(t, err)

	key, err := store.ReadKey("keys/absent.pub")
	assert.Nil(t, key)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "keys/absent.pub", notFound.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
