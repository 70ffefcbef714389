package registry

import (
	"slices"
	"sync"

	"multireg/internal/source"
)

// HolderConfig configures a Holder.
type HolderConfig[V any] struct {
	// Policy selects the view among copies. Defaults to HighestVersion.
	Policy ViewPolicy[V]

	// VersionedDeletes enables RemoveVersioned. Holders that do not track
	// delete versions reject it with ErrUnversionedDeletes.
	VersionedDeletes bool
}

// Holder keeps the per-source copies of one logical entity and exposes a
// single view copy. Copies are keyed by source; the view always references
// one of the stored copies and is absent exactly when the holder is empty.
//
// All methods are safe for concurrent use. Mutations are serialized by a
// single holder mutex: the inspect-decide-commit-reselect transition is
// atomic, so a version comparison is always made against the true current
// state. Readers observe a state that existed at some real instant, never
// a mix of two in-flight mutations.
type Holder[V any] struct {
	id               string
	policy           ViewPolicy[V]
	versionedDeletes bool

	mu      sync.Mutex
	copies  map[source.Source]VersionedCopy[V]
	view    VersionedCopy[V]
	hasView bool
}

// NewHolder creates an empty holder for the given entity id.
func NewHolder[V any](id string, cfg HolderConfig[V]) *Holder[V] {
	policy := cfg.Policy
	if policy == nil {
		policy = HighestVersion[V]()
	}
	return &Holder[V]{
		id:               id,
		policy:           policy,
		versionedDeletes: cfg.VersionedDeletes,
		copies:           make(map[source.Source]VersionedCopy[V]),
	}
}

// ID returns the entity id common to all copies.
func (h *Holder[V]) ID() string { return h.id }

// Size returns the number of copies currently in the holder.
func (h *Holder[V]) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.copies)
}

// Get returns the view copy's data, if any.
func (h *Holder[V]) Get() (V, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasView {
		var zero V
		return zero, false
	}
	return h.view.Data, true
}

// GetBySource returns the copy stored for the given source, if present.
func (h *Holder[V]) GetBySource(src source.Source) (V, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.copies[src]
	if !ok {
		var zero V
		return zero, false
	}
	return c.Data, true
}

// ViewSource returns the source currently backing the view, if any.
func (h *Holder[V]) ViewSource() (source.Source, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasView {
		return source.Source{}, false
	}
	return h.view.Source, true
}

// AllSources returns a point-in-time snapshot of all sources with a live
// copy, in stable order.
func (h *Holder[V]) AllSources() []source.Source {
	h.mu.Lock()
	defer h.mu.Unlock()
	sources := make([]source.Source, 0, len(h.copies))
	for src := range h.copies {
		sources = append(sources, src)
	}
	slices.SortFunc(sources, compareSources)
	return sources
}

// ChangeNotification materializes the current view as an add notification.
// Absent iff the holder is empty.
func (h *Holder[V]) ChangeNotification() (ChangeNotification[V], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasView {
		return ChangeNotification[V]{}, false
	}
	return *h.notificationLocked(), true
}

// Update inserts or replaces the copy for the given source, subject to the
// version check: an incoming copy with a version not greater than the
// stored one is stale (or a duplicate) and is discarded as AddExpired.
//
// On success the view is re-selected and the returned notification carries
// it. The notification is nil exactly when the status is expired.
func (h *Holder[V]) Update(src source.Source, data V, version int64) (Status, *ChangeNotification[V]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.copies[src]; ok && existing.Version >= version {
		return AddExpired, nil
	}

	first := len(h.copies) == 0
	h.copies[src] = VersionedCopy[V]{Source: src, Data: data, Version: version}
	h.selectViewLocked()

	if first {
		return AddedFirst, h.notificationLocked()
	}
	return AddedChange, h.notificationLocked()
}

// Remove unconditionally removes the given source's copy, regardless of
// version. RemoveExpired if the source has no copy.
func (h *Holder[V]) Remove(src source.Source) (Status, *ChangeNotification[V]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(src)
}

// RemoveVersioned removes the given source's copy only if the stored copy
// is older than the removal version; otherwise the removal is stale and
// yields RemoveExpired.
//
// Calling this on a holder built without VersionedDeletes is a
// configuration error: it returns ErrUnversionedDeletes and the status is
// meaningless. It never silently degrades to an unconditional delete.
func (h *Holder[V]) RemoveVersioned(src source.Source, version int64) (Status, *ChangeNotification[V], error) {
	if !h.versionedDeletes {
		return RemoveExpired, nil, ErrUnversionedDeletes
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.copies[src]; !ok || existing.Version >= version {
		return RemoveExpired, nil, nil
	}
	status, notification := h.removeLocked(src)
	return status, notification, nil
}

func (h *Holder[V]) removeLocked(src source.Source) (Status, *ChangeNotification[V]) {
	existing, ok := h.copies[src]
	if !ok {
		return RemoveExpired, nil
	}

	delete(h.copies, src)

	if len(h.copies) == 0 {
		h.hasView = false
		h.view = VersionedCopy[V]{}
		return RemovedLast, &ChangeNotification[V]{
			Kind:   KindDelete,
			ID:     h.id,
			Data:   existing.Data,
			Source: existing.Source,
		}
	}

	h.selectViewLocked()
	return RemovedFragment, h.notificationLocked()
}

// selectViewLocked re-evaluates which copy backs the view. The winner is
// the policy maximum; remaining ties fall to source ordering so the choice
// does not depend on map iteration order.
func (h *Holder[V]) selectViewLocked() {
	h.hasView = false
	for _, candidate := range h.copies {
		if !h.hasView {
			h.view = candidate
			h.hasView = true
			continue
		}
		d := h.policy(candidate, h.view)
		if d > 0 || (d == 0 && compareSources(candidate.Source, h.view.Source) > 0) {
			h.view = candidate
		}
	}
}

func (h *Holder[V]) notificationLocked() *ChangeNotification[V] {
	return &ChangeNotification[V]{
		Kind:   KindAdd,
		ID:     h.id,
		Data:   h.view.Data,
		Source: h.view.Source,
	}
}
