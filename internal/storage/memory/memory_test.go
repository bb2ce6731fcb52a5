package memory_test

import (
	"testing"

	"expenseintel/internal/storage"
	"expenseintel/internal/storage/memory"
	"expenseintel/internal/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return memory.New()
	})
}
