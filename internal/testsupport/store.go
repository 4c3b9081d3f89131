package testsupport

import (
	"context"
	"testing"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Enqueue inserts a pending mutation for tests using the provided store.
func Enqueue(t testing.TB, store *queue.Store, entityType queue.EntityType, entityID string, op queue.Operation, payload string) *queue.Item {
	t.Helper()

	item, err := store.Enqueue(context.Background(), entityType, entityID, op, payload, "tester")
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
