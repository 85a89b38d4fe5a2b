package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps one JSON file per job in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed. An empty dir defaults to
// <user config dir>/dungeonforge/simulations.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		dir = filepath.Join(base, "dungeonforge", "simulations")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the store directory.
func (s *FileStore) Path() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Get(_ context.Context, id string) (*Record, error) {
	// IDs become file names; anything but a UUID is unknown.
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.read(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.Expired() {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *FileStore) Put(_ context.Context, r *Record) error {
	if !ValidID(r.ID) {
		return fmt.Errorf("invalid simulation id %q", r.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal simulation: %w", err)
	}
	if err := os.WriteFile(s.path(r.ID), data, 0o600); err != nil {
		return fmt.Errorf("write simulation file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove simulation file: %w", err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context, opts ListOptions) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	err := s.each(func(_ string, r *Record) {
		if r.Expired() || (opts.GeneratorID != "" && r.GeneratorID != opts.GeneratorID) {
			return
		}
		out = append(out, r)
	})
	return newestFirst(out, opts.Limit), err
}

func (s *FileStore) Cleanup(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	err := s.each(func(path string, r *Record) {
		if r.Expired() && os.Remove(path) == nil {
			n++
		}
	})
	return n, err
}

func (s *FileStore) Close(context.Context) error { return nil }

func (s *FileStore) read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}

// each visits every readable record; unreadable files are skipped.
func (s *FileStore) each(fn func(path string, r *Record)) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read store dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if r, err := s.read(path); err == nil {
			fn(path, r)
		}
	}
	return nil
}

var _ Store = (*FileStore)(nil)
