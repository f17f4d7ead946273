package install

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeInstall(t *testing.T, root, ver string) {
	t.Helper()
	bin := filepath.Join(root, ver, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "python3"), []byte("#!"), 0755))
}

func TestStoreList(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	fakeInstall(t, root, "3.9.10")
	fakeInstall(t, root, "3.9.2")
	fakeInstall(t, root, "3.12.0")

	// Directory without the executable does not count as installed
	require.NoError(t, os.MkdirAll(filepath.Join(root, "3.11.4", "bin"), 0755))
	// Non-version directories are ignored
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".staging-leftover"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.json5"), []byte("{}"), 0644))

	installed, err := store.List()
	require.NoError(t, err)

	versions := make([]string, 0, len(installed))
	for _, i := range installed {
		versions = append(versions, i.Version)
	}
	assert.Equal(t, []string{"3.9.2", "3.9.10", "3.12.0"}, versions, "ascending numeric order")

	for _, i := range installed {
		assert.Equal(t, store.ExecutablePath(i.Version), i.Executable)
		assert.FileExists(t, i.Executable)
	}
}

func TestStoreListMissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))
	installed, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestStoreHas(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	assert.False(t, store.Has("3.11.9"))
	fakeInstall(t, root, "3.11.9")
	assert.True(t, store.Has("3.11.9"))

	assert.Equal(t, filepath.Join(root, "3.11.9", "bin", "python3"), store.ExecutablePath("3.11.9"))
}
