package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Reader resolves a file path from vector metadata to the file's full text.
type Reader interface {
	Read(path string) (string, error)
}

// Dir reads files below a fixed root. Paths are taken relative to the root;
// anything escaping it is rejected.
type Dir struct {
	root string
}

// NewDir creates a reader rooted at the given directory.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) Read(path string) (string, error) {
	full := filepath.Join(d.root, filepath.Clean("/"+path))
	rel, err := filepath.Rel(d.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes root", path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(data), nil
}

// Map serves fixed file contents, for tests.
type Map map[string]string

func (m Map) Read(path string) (string, error) {
	content, ok := m[path]
	if !ok {
		return "", fmt.Errorf("read %q: %w", path, os.ErrNotExist)
	}
	return content, nil
}
