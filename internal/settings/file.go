// Package settings keeps buffer switches in a YAML file.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore is a SettingsStore backed by a flat YAML map of switch names to
// booleans. Every SetValue rewrites the file.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]bool
}

// Open reads path if it exists. A missing file is an empty store.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse settings yaml: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]bool)
	}

	return s, nil
}

// SetValue stores value under key and writes the file.
func (s *FileStore) SetValue(_ context.Context, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.write()
}

// GetValue returns the value stored under key, or def.
func (s *FileStore) GetValue(_ context.Context, key string, def bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return def, nil
}

// write replaces the file through a temp file in the same directory.
func (s *FileStore) write() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode settings yaml: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
