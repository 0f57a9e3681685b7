package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrOutsideBase is returned when a name resolves outside the storage directory.
var ErrOutsideBase = errors.New("path escapes storage directory")

// Object describes a stored file.
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// LocalStorage keeps backups and exports as plain files under one directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates baseDir when missing.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("storage directory required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Dir returns the storage directory.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// Save writes data under name, creating parent directories.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

// Read returns the content stored under name.
func (s *LocalStorage) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Path returns the on-disk location for name.
func (s *LocalStorage) Path(name string) (string, error) {
	return s.resolve(name)
}

// Delete removes name. Missing files are ignored.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns stored files whose name starts with prefix, newest first.
func (s *LocalStorage) List(prefix string) ([]Object, error) {
	objects := make([]Object, 0)
	err := s.walk(func(rel string, info fs.FileInfo) error {
		if strings.HasPrefix(rel, prefix) {
			objects = append(objects, Object{Name: rel, Size: info.Size(), ModTime: info.ModTime()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list storage: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].ModTime.Equal(objects[j].ModTime) {
			return objects[i].Name > objects[j].Name
		}
		return objects[i].ModTime.After(objects[j].ModTime)
	})
	return objects, nil
}

// CleanupOlderThan removes files last modified before now-ttl and returns their names.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := s.walk(func(rel string, info fs.FileInfo) error {
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(filepath.Join(s.baseDir, rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	return deleted, nil
}

func (s *LocalStorage) walk(fn func(rel string, info fs.FileInfo) error) error {
	return filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), info)
	})
}

func (s *LocalStorage) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, name)
	}
	return filepath.Join(s.baseDir, clean), nil
}
