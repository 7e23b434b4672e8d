package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// JSONFileStore keeps one <name>.json file per collection inside a directory.
type JSONFileStore struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("json store: %w", err)
	}
	return &JSONFileStore{dir: dir, locks: map[string]*sync.Mutex{}}, nil
}

func (s *JSONFileStore) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *JSONFileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *JSONFileStore) ReadCollection(ctx context.Context, name string, out any) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()
	body, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(body) == 0) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("json store: read %s: %w", name, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json store: decode %s: %w", name, err)
	}
	return nil
}

// WriteCollection writes to a temp file first and renames it over the old one.
func (s *JSONFileStore) WriteCollection(ctx context.Context, name string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json store: encode %s: %w", name, err)
	}
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()
	tmp, err := os.CreateTemp(s.dir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("json store: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("json store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("json store: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("json store: replace %s: %w", name, err)
	}
	return nil
}

func (s *JSONFileStore) Close() error {
	return nil
}
