// Package filestore implements guardar.Backend on a directory, one file per
// backend key.
package filestore

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const ext = ".json"

// Store keeps each backend key in <dir>/<escaped key>.json. Writes go to a
// temporary file that is renamed into place.
type Store struct {
	dir string
	mx  sync.Map
}

// New creates the directory if needed. A leading "~/" is expanded to the
// user's home directory.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("filestore: directory is required")
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "filestore: home directory")
		}
		dir = filepath.Join(home, dir[2:])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "filestore: create directory")
	}
	return &Store{dir: filepath.Clean(dir)}, nil
}

// Dir returns the directory holding the entries.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+ext)
}

func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.lock(key)
	defer s.unlock(key)

	return s.read(key)
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock(key)
	defer s.unlock(key)

	return s.write(key, value)
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock(key)
	defer s.unlock(key)

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "filestore: remove file")
	}
	return nil
}

// CompareAndSwap is atomic with respect to other callers of this Store only.
func (s *Store) CompareAndSwap(ctx context.Context, key, oldValue, newValue string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.lock(key)
	defer s.unlock(key)

	cur, ok, err := s.read(key)
	if err != nil {
		return false, err
	}
	if !ok || cur != oldValue {
		return false, nil
	}
	if err := s.write(key, newValue); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) read(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "filestore: read file")
	}
	return string(data), true, nil
}

func (s *Store) write(key, value string) error {
	f, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "filestore: create temp file")
	}
	tmp := f.Name()

	if _, err := f.WriteString(value); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "filestore: write file")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "filestore: close file")
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "filestore: rename file")
	}
	return nil
}

func (s *Store) lock(key string) {
	l, _ := s.mx.LoadOrStore(key, &sync.Mutex{})
	l.(*sync.Mutex).Lock()
}

func (s *Store) unlock(key string) {
	l, _ := s.mx.LoadOrStore(key, &sync.Mutex{})
	l.(*sync.Mutex).Unlock()
}
