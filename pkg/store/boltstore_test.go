package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mscno/vaultenv"
)

func TestBoltStore_BasicCRUD(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "boltstore_test.db")

	store, err := NewBoltStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create BoltStore: %v", err)
	}
	defer store.Close()

	got, err := store.Get(ctx, "myproject")
	if err != nil {
		t.Fatalf("Get on empty store: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty bundle, got %+v", got)
	}

	if err := store.Put(ctx, "myproject", vaultenv.Bundle{"FOO": "bar", "BAZ": "qux"}); err != nil {
		t.Fatalf("failed to put bundle: %v", err)
	}
	got, err = store.Get(ctx, "myproject")
	if err != nil {
		t.Fatalf("failed to get bundle: %v", err)
	}
	if got["FOO"] != "bar" || got["BAZ"] != "qux" {
		t.Errorf("unexpected bundle: got %+v", got)
	}

	// every put replaces the whole bundle
	if err := store.Put(ctx, "myproject", vaultenv.Bundle{"FOO": "baz"}); err != nil {
		t.Fatalf("failed to put bundle: %v", err)
	}
	got, _ = store.Get(ctx, "myproject")
	if len(got) != 1 || got["FOO"] != "baz" {
		t.Errorf("expected bundle to be replaced, got %+v", got)
	}
}

func TestBoltStore_Versions(t *testing.T) {
	ctx := context.Background()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "versions.db"))
	if err != nil {
		t.Fatalf("failed to create BoltStore: %v", err)
	}
	defer store.Close()

	v, err := store.Version(ctx, "p")
	if err != nil || v != 0 {
		t.Fatalf("expected version 0, got %d (%v)", v, err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Put(ctx, "p", vaultenv.Bundle{"K": "v"}); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	v, err = store.Version(ctx, "p")
	if err != nil || v != 3 {
		t.Fatalf("expected version 3, got %d (%v)", v, err)
	}
}

func TestBoltStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	store, err := NewBoltStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create BoltStore: %v", err)
	}
	if err := store.Put(ctx, "p", vaultenv.Bundle{"K": "v"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	store.Close()

	store, err = NewBoltStore(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen BoltStore: %v", err)
	}
	defer store.Close()
	got, err := store.Get(ctx, "p")
	if err != nil || got["K"] != "v" {
		t.Fatalf("expected persisted bundle, got %+v (%v)", got, err)
	}
}
