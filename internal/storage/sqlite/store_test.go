package sqlite_test

import (
	"path/filepath"
	"testing"

	"expenseintel/internal/storage"
	"expenseintel/internal/storage/sqlite"
	"expenseintel/internal/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return store
	})
}
