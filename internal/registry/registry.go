package registry

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"

	"multireg/internal/logging"
	"multireg/internal/metrics"
	"multireg/internal/notify"
	"multireg/internal/source"
)

// lockStripes is the number of id-keyed mutation locks. Mutations for ids
// that hash to the same stripe serialize; that only costs throughput,
// never correctness.
const lockStripes = 64

// Config configures a Registry.
type Config[V any] struct {
	// Policy selects each holder's view. Defaults to HighestVersion.
	Policy ViewPolicy[V]

	// VersionedDeletes enables RemoveVersioned on this registry's
	// holders.
	VersionedDeletes bool

	// SubscriberBuffer is the per-subscriber notification buffer size.
	// 0 uses the broker default; negative is a configuration error.
	SubscriberBuffer int

	// Logger for structured logging. If nil, logging is disabled.
	// The registry scopes this logger with component="register".
	Logger *slog.Logger

	// Metrics counts mutation outcomes and holder population. If nil,
	// collection is disabled.
	Metrics *metrics.Collector
}

// Registry reconciles copies of logical entities arriving independently
// from multiple sources into per-entity holders, and keeps the holder
// store consistent with holder emptiness: a holder leaves the store in the
// same logical step that removes its last copy.
//
// Concurrency model:
//   - Mutations for one entity id are serialized by a striped lock, so
//     holder creation, the mutation itself, and holder destruction form
//     one atomic step per id.
//   - Reads go straight to the store and holder and may run concurrently
//     with any mutation.
//   - Lock order is fixed: id stripe, then store, then holder. No path
//     takes them in reverse.
type Registry[V any] struct {
	store            *HolderStore[V]
	broker           *notify.Broker[ChangeNotification[V]]
	changed          *notify.Signal
	policy           ViewPolicy[V]
	versionedDeletes bool
	metrics          *metrics.Collector
	logger           *slog.Logger

	locks [lockStripes]sync.Mutex
}

// New creates a Registry with the given configuration.
func New[V any](cfg Config[V]) (*Registry[V], error) {
	if cfg.SubscriberBuffer < 0 {
		return nil, fmt.Errorf("subscriber buffer must not be negative, got %d", cfg.SubscriberBuffer)
	}
	policy := cfg.Policy
	if policy == nil {
		policy = HighestVersion[V]()
	}

	logger := logging.Default(cfg.Logger).With("component", "register")

	return &Registry[V]{
		store:            NewHolderStore[V](),
		broker:           notify.NewBroker[ChangeNotification[V]](cfg.SubscriberBuffer),
		changed:          notify.NewSignal(),
		policy:           policy,
		versionedDeletes: cfg.VersionedDeletes,
		metrics:          cfg.Metrics,
		logger:           logger,
	}, nil
}

// Update applies one copy of entity id from the given source. A holder is
// created on the first copy for an id and destroyed when its last copy is
// removed; callers never manage holders directly.
func (r *Registry[V]) Update(id string, src source.Source, data V, version int64) Status {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	h, ok := r.store.Get(id)
	if !ok {
		var created bool
		h, created = r.store.GetOrAdd(NewHolder(id, HolderConfig[V]{Policy: r.policy, VersionedDeletes: r.versionedDeletes}))
		if created {
			r.metrics.HolderCreated()
			r.logger.Debug("holder created", "id", id)
		}
	}

	status, notification := h.Update(src, data, version)
	r.finish(status, notification)
	return status
}

// Remove unconditionally removes the given source's copy of entity id.
func (r *Registry[V]) Remove(id string, src source.Source) Status {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	h, ok := r.store.Get(id)
	if !ok {
		r.finish(RemoveExpired, nil)
		return RemoveExpired
	}

	status, notification := h.Remove(src)
	if status == RemovedLast {
		r.destroyLocked(id)
	}
	r.finish(status, notification)
	return status
}

// RemoveVersioned removes the given source's copy of entity id if the
// stored copy is older than the removal version. It fails with
// ErrUnversionedDeletes when the registry was not configured for versioned
// deletes.
func (r *Registry[V]) RemoveVersioned(id string, src source.Source, version int64) (Status, error) {
	if !r.versionedDeletes {
		return RemoveExpired, ErrUnversionedDeletes
	}

	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	h, ok := r.store.Get(id)
	if !ok {
		r.finish(RemoveExpired, nil)
		return RemoveExpired, nil
	}

	status, notification, err := h.RemoveVersioned(src, version)
	if err != nil {
		return status, err
	}
	if status == RemovedLast {
		r.destroyLocked(id)
	}
	r.finish(status, notification)
	return status, nil
}

// EvictSource removes every copy whose source matches, across all holders.
// This is how copies left behind by a departed producer (for example a
// replication peer that disconnected) are cleaned up. Returns the number
// of copies removed.
func (r *Registry[V]) EvictSource(match source.Matcher) int {
	evicted := 0
	for _, id := range r.store.IDs() {
		lock := r.lockFor(id)
		lock.Lock()
		h, ok := r.store.Get(id)
		if !ok {
			lock.Unlock()
			continue
		}
		for _, src := range h.AllSources() {
			if !match(src) {
				continue
			}
			status, notification := h.Remove(src)
			if status.Expired() {
				continue
			}
			evicted++
			if status == RemovedLast {
				r.destroyLocked(id)
			}
			if notification != nil {
				r.publish(*notification)
			}
		}
		lock.Unlock()
	}

	r.metrics.Evicted(evicted)
	if evicted > 0 {
		r.logger.Info("evicted source copies", "copies", evicted)
	}
	return evicted
}

// Get returns the current view data for entity id, if any.
func (r *Registry[V]) Get(id string) (V, bool) {
	if h, ok := r.store.Get(id); ok {
		return h.Get()
	}
	var zero V
	return zero, false
}

// Holder returns the holder for entity id, if present. Callers mutating
// the holder directly bypass the registry's lifecycle handling and
// notification fan-out; prefer Update/Remove.
func (r *Registry[V]) Holder(id string) (*Holder[V], bool) {
	return r.store.Get(id)
}

// Contains reports whether entity id currently has any copies.
func (r *Registry[V]) Contains(id string) bool {
	return r.store.Contains(id)
}

// Len returns the number of entities currently held.
func (r *Registry[V]) Len() int {
	return r.store.Len()
}

// Snapshot returns one add notification per live entity, in id order.
// Replaying a snapshot and then the subscription stream reconstructs
// register state.
func (r *Registry[V]) Snapshot() []ChangeNotification[V] {
	ids := r.store.IDs()
	slices.Sort(ids)

	notifications := make([]ChangeNotification[V], 0, len(ids))
	for _, id := range ids {
		h, ok := r.store.Get(id)
		if !ok {
			continue
		}
		if n, ok := h.ChangeNotification(); ok {
			notifications = append(notifications, n)
		}
	}
	return notifications
}

// Subscribe returns a channel receiving every subsequent change
// notification. Per entity, notifications arrive in mutation order; a
// subscriber that does not keep up loses notifications rather than
// blocking mutations.
func (r *Registry[V]) Subscribe(ctx context.Context) <-chan ChangeNotification[V] {
	return r.broker.Subscribe(ctx)
}

// Changed returns a channel that is closed when the next change
// notification is published. Waiters re-call Changed after each wakeup;
// changes between wakeups coalesce into one. For consumers that only need
// to know something changed and will re-read state themselves, this is
// cheaper than draining a Subscribe stream.
func (r *Registry[V]) Changed() <-chan struct{} {
	return r.changed.C()
}

// Dropped returns the number of notifications lost to slow subscribers.
func (r *Registry[V]) Dropped() uint64 {
	return r.broker.Dropped()
}

// Close shuts down notification fan-out. The register itself remains
// usable for reads.
func (r *Registry[V]) Close() error {
	r.broker.Close()
	return nil
}

// destroyLocked drops an emptied holder from the store. Caller holds the
// id's stripe lock.
func (r *Registry[V]) destroyLocked(id string) {
	r.store.Remove(id)
	r.metrics.HolderDestroyed()
	r.logger.Debug("holder destroyed", "id", id)
}

func (r *Registry[V]) finish(status Status, notification *ChangeNotification[V]) {
	r.metrics.Mutation(status.String(), status.Expired())
	if notification != nil {
		r.publish(*notification)
	}
}

func (r *Registry[V]) publish(n ChangeNotification[V]) {
	r.broker.Publish(n)
	r.changed.Notify()
}

func (r *Registry[V]) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &r.locks[h.Sum32()%lockStripes]
}
