package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "hi")

	got, err := HashFile(path)
	require.NoError(t, err)

	want := sha256.Sum256([]byte("hi"))
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestHashFileLargerThanChunk(t *testing.T) {
	dir := t.TempDir()
	content := gofakeit.LetterN(3 * hashChunkSize)
	path := writeFile(t, dir, "big.bin", content)

	got, err := HashFile(path)
	require.NoError(t, err)

	want := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestSnapshotRecursive(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "alpha")
	b := writeFile(t, dir, filepath.Join("sub", "deep", "b.txt"), "beta")

	store, err := New(dir, true).Snapshot()
	require.NoError(t, err)

	require.Len(t, store, 2)
	assert.Contains(t, store, a)
	assert.Contains(t, store, b)
	for path, fs := range store {
		assert.Equal(t, path, fs.Path)
		assert.NotEmpty(t, fs.Hash)
		assert.Greater(t, fs.MTime, 0.0)
	}
}

func TestSnapshotExcludesHidden(t *testing.T) {
	dir := t.TempDir()
	visible := writeFile(t, dir, "visible.txt", "ok")
	writeFile(t, dir, ".secret", "hidden file")
	writeFile(t, dir, filepath.Join(".git", "config"), "hidden dir")

	store, err := New(dir, true).Snapshot()
	require.NoError(t, err)

	assert.Len(t, store, 1)
	assert.Contains(t, store, visible)
}

func TestSnapshotIncludesHiddenWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "visible.txt", "ok")
	writeFile(t, dir, ".secret", "hidden file")
	writeFile(t, dir, filepath.Join(".git", "config"), "hidden dir")

	store, err := New(dir, false).Snapshot()
	require.NoError(t, err)

	assert.Len(t, store, 3)
}

func TestSnapshotIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, dir, gofakeit.LetterN(8)+".txt", gofakeit.Paragraph(1, 3, 10, " "))
	}

	s := New(dir, true)
	first, err := s.Snapshot()
	require.NoError(t, err)
	second, err := s.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSnapshotSkipsUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	readable := writeFile(t, dir, "ok.txt", "fine")
	locked := writeFile(t, dir, "locked.txt", "no access")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	store, err := New(dir, true).Snapshot()
	require.NoError(t, err)

	assert.Contains(t, store, readable)
	assert.NotContains(t, store, locked)
}

func TestSnapshotMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "gone"), true).Snapshot()
	assert.Error(t, err)
}
