package registry

// Status classifies the outcome of a single mutation. Absence and
// staleness are statuses, never errors: under concurrent multi-source
// replication, expired writes are expected and silently absorbed.
type Status int

const (
	// AddedFirst reports the first copy ever added to an empty holder.
	AddedFirst Status = iota
	// AddedChange reports a copy that modified a non-empty holder: either
	// a replacement of the same source's older copy or a new source's
	// first copy alongside existing ones.
	AddedChange
	// AddExpired reports a stale or duplicate incoming copy. No-op.
	AddExpired
	// RemovedFragment reports removal of one of several copies; the
	// holder remains non-empty.
	RemovedFragment
	// RemovedLast reports removal of the final copy; the holder is now
	// empty and eligible for destruction.
	RemovedLast
	// RemoveExpired reports a removal that targeted a stale or
	// non-existent copy. No-op.
	RemoveExpired
)

func (s Status) String() string {
	switch s {
	case AddedFirst:
		return "AddedFirst"
	case AddedChange:
		return "AddedChange"
	case AddExpired:
		return "AddExpired"
	case RemovedFragment:
		return "RemovedFragment"
	case RemovedLast:
		return "RemovedLast"
	case RemoveExpired:
		return "RemoveExpired"
	}
	return "Unknown"
}

// Expired reports whether the status is a no-op outcome.
func (s Status) Expired() bool {
	return s == AddExpired || s == RemoveExpired
}
