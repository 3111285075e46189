package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// File keeps the slot in a single file on disk. It is the local storage of
// the command line client.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Load(context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read cart file")
	}
	return string(data), nil
}

// Save writes to a temp file next to the target and renames it over, so a
// reader never sees a partial cart.
func (f *File) Save(_ context.Context, value string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create cart directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp cart file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write cart file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close cart file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "failed to replace cart file")
	}
	return nil
}

// FileFactory stores every slot as <dir>/<key>.json.
func FileFactory(dir string) Factory {
	return func(key string) Storage {
		return NewFile(filepath.Join(dir, fileName(key)))
	}
}

func fileName(key string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	return clean + ".json"
}
