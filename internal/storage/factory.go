package storage

import "fmt"

func DefaultStoreKind() string {
	return "file"
}

// NewStore builds a backend by kind. location is the sqlite database path for
// "sqlite" and the snapshot root directory for "file".
func NewStore(kind, location string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(location), nil
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(location)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
