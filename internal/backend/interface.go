// Package backend selects and constructs the storage implementation from
// configuration. The rest of the application only sees storage.Store.
package backend

import (
	"context"

	"expenseintel/internal/storage"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func(ctx context.Context) error

// Result bundles the constructed store with its cleanup function.
type Result struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// Factory creates storage backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds everything backend construction needs.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// MongoDB specific
	MongoURI    string
	MongoDBName string
}

type Type string

const (
	SQLiteBackend Type = "sqlite"
	MongoBackend  Type = "mongo"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MongoBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
