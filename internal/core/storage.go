// Package core wires the todo store backend selected by configuration.
package core

import (
	"fmt"
	"io"

	"todoboard/internal/config"
	"todoboard/internal/infra/persistence/memory"
	"todoboard/internal/infra/persistence/sqlite"
	"todoboard/internal/todo"
)

// StorageDriver identifies a concrete todo store implementation.
type StorageDriver string

const (
	StorageMemory StorageDriver = config.StorageMemory // map guarded by a RWMutex (default)
	StorageSQLite StorageDriver = config.StorageSQLite // private in-memory sqlite database
)

// Store is a todo store that owns resources released by Close.
type Store interface {
	todo.Store
	io.Closer
}

// OpenStore selects a backend from cfg. An empty driver means memory.
func OpenStore(cfg config.Storage) (Store, error) {
	switch StorageDriver(cfg.Driver) {
	case "", StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		s, err := sqlite.NewStore()
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
