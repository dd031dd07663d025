// Package cache persists store collections across restarts.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Cache is a string key-value store. Get reports false for a missing key
// or an unreadable backend.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// ErrBadKey is returned for keys that cannot be used as a file name.
var ErrBadKey = errors.New("invalid cache key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileCache stores one JSON file per key in Dir.
type FileCache struct {
	Dir string
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{Dir: dir}, nil
}

func (c *FileCache) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return filepath.Join(c.Dir, key+".json"), nil
}

// Get implements Cache.
func (c *FileCache) Get(key string) (string, bool) {
	p, err := c.path(key)
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes value to a temp file and renames it over the key file.
func (c *FileCache) Set(key, value string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Delete removes the key file. Missing keys are not an error.
func (c *FileCache) Delete(key string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
