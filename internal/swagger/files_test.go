package swagger

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeJSON(t *testing.T) {
	data, err := encodeJSON(map[string]any{"b": "<x>/y", "a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"<x>/y"}`, string(data))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	path := filepath.Join(dir, "a.json")

	require.NoError(t, writeFileAtomic(path, []byte("one")))
	require.NoError(t, writeFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicIntoFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := writeFileAtomic(filepath.Join(blocker, "a.json"), []byte("x"))
	var fsErr *FileSystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, "mkdir", fsErr.Op)
	assert.True(t, IsServerError(err))
}

func TestReadFileRetry(t *testing.T) {
	dir := t.TempDir()

	_, err := readFileRetry(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	var fsErr *FileSystemError
	assert.False(t, errors.As(err, &fsErr), "missing files are not file system errors")

	path := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	data, err := readFileRetry(path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	_, err = readFileRetry(dir)
	assert.ErrorAs(t, err, &fsErr)
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"_.json", "db.json", ".hidden"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	removed, failures := clearDir(dir)
	assert.Equal(t, 3, removed)
	assert.Empty(t, failures)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sub", entries[0].Name())
}

func TestClearDirMissing(t *testing.T) {
	removed, failures := clearDir(filepath.Join(t.TempDir(), "absent"))
	assert.Zero(t, removed)
	assert.Empty(t, failures)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	assert.True(t, fileExists(path))
	assert.False(t, fileExists(dir))
	assert.False(t, fileExists(filepath.Join(dir, "nope")))
}
