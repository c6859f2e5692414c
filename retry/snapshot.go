package retry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotWriter stores diagnostic page dumps in one directory.
//
// Files are named deterministically from the request, so a later failure
// for the same identifier overwrites the earlier dump.
type SnapshotWriter struct {
	dir string
}

// NewSnapshotWriter writes into dir, "." when empty.
func NewSnapshotWriter(dir string) *SnapshotWriter {
	if dir == "" {
		dir = "."
	}
	return &SnapshotWriter{dir: dir}
}

// Dir returns the target directory.
func (w *SnapshotWriter) Dir() string { return w.dir }

// Write stores content under name and returns the file path. The write goes
// through a temporary file so readers never see a partial dump.
func (w *SnapshotWriter) Write(name, content string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: create dir: %w", err)
	}
	path := filepath.Join(w.dir, SanitizeName(name))

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("snapshot: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("snapshot: rename: %w", err)
	}
	return path, nil
}

// SanitizeName maps name onto a single safe path element: anything other
// than letters, digits, '.', '-' and '_' becomes '_'.
func SanitizeName(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if s == "" || strings.Trim(s, ".") == "" {
		return "_"
	}
	return s
}
