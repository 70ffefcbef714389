// Package registry implements a multi-sourced, versioned data register.
//
// Each logical entity is held by a Holder that keeps one copy per source
// and exposes a single view copy selected by a deterministic policy. A
// HolderStore indexes holders by entity id, and Registry drives both,
// keeping the store consistent with holder emptiness and fanning out
// change notifications.
package registry

import (
	"errors"

	"multireg/internal/source"
)

var (
	// ErrHolderExists is returned by HolderStore.Add when a different
	// holder is already registered under the same id.
	ErrHolderExists = errors.New("holder already registered for id")

	// ErrUnversionedDeletes is returned when a versioned remove is issued
	// against a holder that was not configured to track delete versions.
	// This is programmer misuse, not a runtime input condition.
	ErrUnversionedDeletes = errors.New("holder does not track delete versions")
)

// VersionedCopy is one source's copy of an entity. Version is an externally
// supplied monotonic per-source token (sequence number or timestamp) used
// to reject stale writes.
//
// A copy is owned by the holder that stores it and is replaced wholesale on
// update, never mutated in place.
type VersionedCopy[V any] struct {
	Source  source.Source
	Data    V
	Version int64
}

// Kind tags a change notification.
type Kind int

const (
	// KindAdd reports that the entity's view was introduced or changed.
	KindAdd Kind = iota
	// KindDelete reports that the entity's view was removed and the
	// holder emptied.
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindDelete:
		return "delete"
	}
	return "unknown"
}

// ChangeNotification is an immutable snapshot emitted once per successful
// mutation. Subscribers replay these to reconstruct register state; the
// value retains no link back into the holder that produced it.
//
// ID carries the entity id so a subscriber can key its replay per holder;
// the data type V is opaque here and cannot be asked for it.
type ChangeNotification[V any] struct {
	Kind   Kind
	ID     string
	Data   V
	Source source.Source
}
