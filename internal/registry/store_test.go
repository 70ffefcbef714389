package registry_test

import (
	"errors"
	"slices"
	"testing"

	"multireg/internal/registry"
)

func TestStoreAddGet(t *testing.T) {
	store := registry.NewHolderStore[string]()
	h := registry.NewHolder[string]("X", registry.HolderConfig[string]{})

	if err := store.Add(h); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, ok := store.Get("X")
	if !ok || got != h {
		t.Error("Get should return the registered holder")
	}
	if !store.Contains("X") {
		t.Error("Contains should report true")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStoreAddSameHolderTwice(t *testing.T) {
	store := registry.NewHolderStore[string]()
	h := registry.NewHolder[string]("X", registry.HolderConfig[string]{})

	if err := store.Add(h); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(h); err != nil {
		t.Errorf("re-adding the same holder should be a no-op, got %v", err)
	}
}

func TestStoreAddConflict(t *testing.T) {
	store := registry.NewHolderStore[string]()
	first := registry.NewHolder[string]("X", registry.HolderConfig[string]{})
	second := registry.NewHolder[string]("X", registry.HolderConfig[string]{})

	if err := store.Add(first); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(second); !errors.Is(err, registry.ErrHolderExists) {
		t.Fatalf("got %v, want ErrHolderExists", err)
	}

	// The original registration must be untouched.
	got, _ := store.Get("X")
	if got != first {
		t.Error("conflicting Add must not replace the registered holder")
	}
}

func TestStoreGetOrAdd(t *testing.T) {
	store := registry.NewHolderStore[string]()
	first := registry.NewHolder[string]("X", registry.HolderConfig[string]{})

	got, registered := store.GetOrAdd(first)
	if got != first || !registered {
		t.Fatalf("GetOrAdd on an empty id = (%p, %v), want (first, true)", got, registered)
	}

	// A colliding holder loses to the registered one, so check-then-add
	// callers racing on the same id converge on a single holder.
	second := registry.NewHolder[string]("X", registry.HolderConfig[string]{})
	got, registered = store.GetOrAdd(second)
	if got != first || registered {
		t.Fatalf("GetOrAdd on an occupied id = (%p, %v), want (first, false)", got, registered)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStoreRemove(t *testing.T) {
	store := registry.NewHolderStore[string]()
	h := registry.NewHolder[string]("X", registry.HolderConfig[string]{})
	if err := store.Add(h); err != nil {
		t.Fatalf("Add: %v", err)
	}

	store.Remove("X")
	if store.Contains("X") {
		t.Error("Contains should report false after Remove")
	}
	if _, ok := store.Get("X"); ok {
		t.Error("Get should miss after Remove")
	}

	// Removing a missing id is harmless.
	store.Remove("X")
}

func TestStoreIDs(t *testing.T) {
	store := registry.NewHolderStore[string]()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Add(registry.NewHolder[string](id, registry.HolderConfig[string]{})); err != nil {
			t.Fatalf("Add(%q): %v", id, err)
		}
	}

	ids := store.IDs()
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"a", "b", "c"}) {
		t.Errorf("IDs() = %v", ids)
	}
}
