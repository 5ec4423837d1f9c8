package internal

import (
	"fmt"
)

// Backend bundles a key-value store with the function that releases it
type Backend struct {
	Name  string
	Path  string
	KV    KeyValueStore
	close func() error
}

// Close releases the backend's resources
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the named backend ("sqlite", "file" or "memory") at path
func OpenBackend(name, path string) (*Backend, error) {
	switch name {
	case "sqlite", "":
		db, err := OpenDatabase(path)
		if err != nil {
			return nil, &StorageError{Key: path, Op: "open", Err: err}
		}
		LogDebug("Opened SQLite storage at %s", path)
		return &Backend{Name: "sqlite", Path: path, KV: NewSQLiteKV(db), close: db.Close}, nil
	case "file":
		kv, err := NewFileKV(path)
		if err != nil {
			return nil, err
		}
		LogDebug("Opened file storage at %s", path)
		return &Backend{Name: name, Path: path, KV: kv}, nil
	case "memory":
		LogWarn("Using in-memory storage, conversations will not survive a restart")
		return &Backend{Name: name, KV: NewMemoryKV()}, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", name)
	}
}
