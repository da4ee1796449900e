package testsupport

import (
	"context"
	"testing"

	"mastergate/internal/config"
	"mastergate/internal/queue"
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

// Enqueue creates a new pending submission for tests using the provided store.
func Enqueue(t testing.TB, store *queue.Store, userID, contentHash, sourcePath string) *queue.Submission {
	t.Helper()

	item, err := store.Enqueue(context.Background(), userID, contentHash, sourcePath)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}

// MustClaim claims a submission and fails the test when the claim is lost.
func MustClaim(t testing.TB, store *queue.Store, id int64, userID string) {
	t.Helper()

	claimed, err := store.Claim(context.Background(), id, userID)
	if err != nil {
		t.Fatalf("store.Claim: %v", err)
	}
	if !claimed {
		t.Fatalf("expected to claim submission %d", id)
	}
}
