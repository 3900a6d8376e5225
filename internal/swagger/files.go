package swagger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
)

// encodeJSON marshals v with sorted map keys and without HTML escaping, so
// slashes and angle brackets in descriptors survive unchanged.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &FileSystemError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+ulid.Make().String()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return &FileSystemError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &FileSystemError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// readFileRetry reads path, retrying once when the file vanished between
// the existence check and the read. Returns fs.ErrNotExist when missing.
func readFileRetry(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &FileSystemError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// clearDir removes every regular file directly under dir. A missing
// directory is a no-op. Per-file failures are collected, not fatal.
func clearDir(dir string) (removed int, failures []error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, []error{&FileSystemError{Op: "readdir", Path: dir, Err: err}}
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			failures = append(failures, &FileSystemError{Op: "remove", Path: p, Err: err})
			continue
		}
		removed++
	}
	return removed, failures
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
