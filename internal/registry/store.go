package registry

import "sync"

// HolderStore is a concurrent index of holders by entity id. It governs
// holder identity: while any source still holds a copy, lookups for the id
// return the same holder.
//
// The store itself never inspects holder contents. The collaborator
// driving mutations must remove a holder in the same logical step that
// produced RemovedLast; Registry does exactly that.
type HolderStore[V any] struct {
	mu      sync.RWMutex
	holders map[string]*Holder[V]
}

// NewHolderStore creates an empty store.
func NewHolderStore[V any]() *HolderStore[V] {
	return &HolderStore[V]{holders: make(map[string]*Holder[V])}
}

// Add registers a holder under its id. Re-adding the same holder is a
// no-op; registering a different holder under an occupied id fails with
// ErrHolderExists rather than silently replacing it.
func (s *HolderStore[V]) Add(h *Holder[V]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.holders[h.ID()]; ok {
		if existing == h {
			return nil
		}
		return ErrHolderExists
	}
	s.holders[h.ID()] = h
	return nil
}

// GetOrAdd registers the holder under its id, unless the id is already
// occupied, in which case the stored holder wins. Returns the holder now
// registered for the id and whether this call registered it. Check-then-add
// callers racing on the same id all end up mutating the same holder.
func (s *HolderStore[V]) GetOrAdd(h *Holder[V]) (*Holder[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.holders[h.ID()]; ok {
		return existing, false
	}
	s.holders[h.ID()] = h
	return h, true
}

// Get returns the holder for the given id, if present.
func (s *HolderStore[V]) Get(id string) (*Holder[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holders[id]
	return h, ok
}

// Remove unconditionally drops the entry for the given id.
func (s *HolderStore[V]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holders, id)
}

// Contains reports whether a holder is registered for the given id.
func (s *HolderStore[V]) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.holders[id]
	return ok
}

// Len returns the number of registered holders.
func (s *HolderStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.holders)
}

// IDs returns a point-in-time snapshot of all registered entity ids.
func (s *HolderStore[V]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.holders))
	for id := range s.holders {
		ids = append(ids, id)
	}
	return ids
}
