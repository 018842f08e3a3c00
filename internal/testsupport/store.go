package testsupport

import (
	"context"
	"testing"

	"subforge/internal/config"
	"subforge/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StartRecord inserts a running record of kind for tests using the provided store.
func StartRecord(t testing.TB, store *history.Store, kind history.Kind, input string) *history.Record {
	t.Helper()

	rec, err := store.Start(context.Background(), history.Record{Kind: kind, InputPath: input})
	if err != nil {
		t.Fatalf("store.Start: %v", err)
	}
	return rec
}
