package scripts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("//"), 0644))
	}
}

func TestFindByPathAndMethod(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"db.todo.get.pre_process.js",
		"db.todo.get.post_process.js",
		"db.todo.post.pre_process.js",
		"db.todo.get.txt",
	)

	f := NewFinder(dir)
	got := f.Find("db.todo", "GET", "")
	assert.Equal(t, []string{
		filepath.Join(dir, "db.todo.get.post_process.js"),
		filepath.Join(dir, "db.todo.get.pre_process.js"),
	}, got)
}

func TestFindByEventName(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "db.todo.select.js", "db.todo.get.audit.js")

	got := NewFinder(dir).Find("db.todo", "get", "db.todo.select")
	assert.Equal(t, []string{
		filepath.Join(dir, "db.todo.get.audit.js"),
		filepath.Join(dir, "db.todo.select.js"),
	}, got)
}

func TestFindBracesAreLiteral(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "db.{table_name}.select.js", "db.table_name.select.js")

	got := NewFinder(dir).Find("db.{table_name}", "get", "db.{table_name}.select")
	assert.Equal(t, []string{filepath.Join(dir, "db.{table_name}.select.js")}, got)
}

func TestFindDedupes(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "db.todo.get.select.js")

	got := NewFinder(dir).Find("db.todo", "get", "db.todo.get.select")
	assert.Len(t, got, 1)
}

func TestFindMissingDir(t *testing.T) {
	f := NewFinder(filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, f.Find("db.todo", "get", "db.todo.select"))

	var nilFinder *Finder
	assert.Empty(t, nilFinder.Find("db", "get", "x"))
	assert.Equal(t, "", nilFinder.Root())
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `db.\{id\}`, escape("db.{id}"))
	assert.Equal(t, `a\*b\?`, escape("a*b?"))
	assert.Equal(t, "plain", escape("plain"))
}
