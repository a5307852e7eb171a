package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")

	store := Store{
		"/srv/app/a.txt": {Path: "/srv/app/a.txt", Hash: "aaa", MTime: 1717200000.5},
		"/srv/app/b.txt": {Path: "/srv/app/b.txt", Hash: "bbb", MTime: 1717200123.0},
	}

	require.NoError(t, Save(store, path))

	loaded, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, store, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	store, found, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, store)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")

	require.NoError(t, Save(Store{"/x": {Path: "/x", Hash: "1", MTime: 1}}, path))
	require.NoError(t, Save(Store{"/y": {Path: "/y", Hash: "2", MTime: 2}}, path))

	loaded, found, err := Load(path)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, loaded, 1)
	assert.Contains(t, loaded, "/y")

	// no temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, Save(Store{}, path))

	loaded, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, loaded)
}
