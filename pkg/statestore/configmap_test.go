package statestore

import (
	"context"
	"testing"

	"k8s.io/client-go/kubernetes/fake"
)

func Test_ConfigMapStoreRoundTrip(t *testing.T) {
	store := NewConfigMapStore(fake.NewSimpleClientset(), "deploykit", "trigger-state")
	ctx := context.Background()

	// literal state keys contain slashes and colons and must survive intact
	key := "shop/backend/c1/ns1/prod/registry.internal/shop:1.2.3"
	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get() on empty store = (%v, %v), want absent", ok, err)
	}
	if err := store.Set(ctx, key, "abc123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, ok, err := store.Get(ctx, key)
	if err != nil || !ok || value != "abc123" {
		t.Fatalf("Get() = (%q, %v, %v), want (abc123, true, nil)", value, ok, err)
	}

	// a second key must not disturb the first
	if err := store.Set(ctx, "shop/backend/c1/ns1/prod/main", "deadbeef"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if value, _, _ := store.Get(ctx, key); value != "abc123" {
		t.Errorf("first key overwritten, got %q", value)
	}
}

func Test_MemoryStoreWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, "a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "a", "2"); err != nil {
		t.Fatal(err)
	}
	if store.Writes() != 2 || store.Len() != 1 {
		t.Errorf("Writes() = %d, Len() = %d, want 2 and 1", store.Writes(), store.Len())
	}
}
