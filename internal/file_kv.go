package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileKV stores each key as a file inside a directory
type FileKV struct {
	dir string
	mu  sync.Mutex
}

// NewFileKV creates a file-backed store rooted at dir
func NewFileKV(dir string) (*FileKV, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage directory must be provided")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Key: dir, Op: "open", Err: err}
	}
	return &FileKV{dir: dir}, nil
}

// Get returns the contents of the file for key
func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Key: key, Op: "get", Err: err}
	}
	return string(data), true, nil
}

// Set replaces the file for key through a temp file and rename
func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, "kv-*.tmp")
	if err != nil {
		return &StorageError{Key: key, Op: "set", Err: fmt.Errorf("create temp file: %w", err)}
	}

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StorageError{Key: key, Op: "set", Err: fmt.Errorf("write temp file: %w", err)}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Key: key, Op: "set", Err: fmt.Errorf("close temp file: %w", err)}
	}

	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Key: key, Op: "set", Err: fmt.Errorf("rename temp file: %w", err)}
	}

	return nil
}

// Dir returns the storage directory
func (f *FileKV) Dir() string {
	return f.dir
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

func sanitizeKey(value string) string {
	if value == "" {
		return "_"
	}

	var builder strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}

	return builder.String()
}

var _ KeyValueStore = (*FileKV)(nil)
