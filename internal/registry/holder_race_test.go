package registry_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"multireg/internal/registry"
	"multireg/internal/source"
)

// Concurrent writers for the same source: version comparison must run
// against the true current state, so the highest version always ends up
// stored and exactly one writer observes AddedFirst.
func TestHolderConcurrentSameSource(t *testing.T) {
	h := registry.NewHolder[string]("X", registry.HolderConfig[string]{})
	src := source.NewWithID(source.OriginReplicated, "dc1-node1", "inc-1")

	const writers = 16
	const perWriter = 50

	var firsts atomic.Int64
	var g errgroup.Group
	for w := 0; w < writers; w++ {
		g.Go(func() error {
			for i := 1; i <= perWriter; i++ {
				status, _ := h.Update(src, fmt.Sprintf("v%d", i), int64(i))
				if status == registry.AddedFirst {
					firsts.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := firsts.Load(); got != 1 {
		t.Errorf("AddedFirst observed %d times, want exactly 1", got)
	}
	if data, _ := h.Get(); data != fmt.Sprintf("v%d", perWriter) {
		t.Errorf("view = %q, want v%d", data, perWriter)
	}
	if h.Size() != 1 {
		t.Errorf("Size() = %d, want 1", h.Size())
	}
}

// Concurrent writers for different sources on one holder, with readers in
// flight: every source's final copy must be its own highest version, and
// readers must never observe a view that references a missing copy.
func TestHolderConcurrentDistinctSources(t *testing.T) {
	h := registry.NewHolder[string]("X", registry.HolderConfig[string]{})

	const writers = 8
	const perWriter = 40

	sources := make([]source.Source, writers)
	for i := range sources {
		sources[i] = source.NewWithID(source.OriginReplicated, fmt.Sprintf("node%d", i), "inc-1")
	}

	var g errgroup.Group
	for w := 0; w < writers; w++ {
		src := sources[w]
		g.Go(func() error {
			for i := 1; i <= perWriter; i++ {
				h.Update(src, fmt.Sprintf("%s@v%d", src.Name, i), int64(i))
			}
			return nil
		})
	}
	g.Go(func() error {
		for i := 0; i < writers*perWriter; i++ {
			if viewSrc, ok := h.ViewSource(); ok {
				if _, stored := h.GetBySource(viewSrc); !stored {
					return fmt.Errorf("view references %v with no stored copy", viewSrc)
				}
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if h.Size() != writers {
		t.Fatalf("Size() = %d, want %d", h.Size(), writers)
	}
	for _, src := range sources {
		want := fmt.Sprintf("%s@v%d", src.Name, perWriter)
		if data, _ := h.GetBySource(src); data != want {
			t.Errorf("copy for %s = %q, want %q", src.Name, data, want)
		}
	}
}
