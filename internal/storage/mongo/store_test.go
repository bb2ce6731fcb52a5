package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"expenseintel/internal/storage"
	"expenseintel/internal/storage/mongo"
	"expenseintel/internal/storage/storagetest"
)

// dropOnClose removes the throwaway test database before disconnecting.
type dropOnClose struct {
	*mongo.Store
}

func (d dropOnClose) Close(ctx context.Context) error {
	if err := d.Drop(ctx); err != nil {
		return err
	}
	return d.Store.Close(ctx)
}

// TestConformance needs a running MongoDB; set MONGO_TEST_URI to enable it,
// e.g. MONGO_TEST_URI=mongodb://localhost:27017.
func TestConformance(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	storagetest.Run(t, func(t *testing.T) storage.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		dbName := fmt.Sprintf("expenseintel_test_%s", uuid.New().String()[:8])
		store, err := mongo.Open(ctx, uri, dbName)
		if err != nil {
			t.Fatalf("open mongo store: %v", err)
		}
		return dropOnClose{Store: store}
	})
}
