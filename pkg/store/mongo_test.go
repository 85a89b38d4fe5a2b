//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Run with: DUNGEONFORGE_TEST_MONGO_URI=mongodb://localhost:27017 go test -tags integration ./pkg/store
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("DUNGEONFORGE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DUNGEONFORGE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "dungeonforge_test",
		Collection: "simulations_" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		_ = s.coll.Drop(context.Background())
		_ = s.Close(context.Background())
	})

	runStoreContract(t, s)
}
