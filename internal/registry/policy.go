package registry

import (
	"cmp"

	"multireg/internal/source"
)

// ViewPolicy ranks two copies; the copy that compares greater backs the
// view. Policies are consulted on every mutation that could change who
// wins. A policy may return 0 for copies it considers equal: selection
// breaks remaining ties on source identity, so the chosen view is always
// deterministic and total regardless of map iteration order.
type ViewPolicy[V any] func(a, b VersionedCopy[V]) int

// HighestVersion prefers the copy with the highest version. This is the
// default policy.
func HighestVersion[V any]() ViewPolicy[V] {
	return func(a, b VersionedCopy[V]) int {
		return cmp.Compare(a.Version, b.Version)
	}
}

// OriginRank prefers copies by fixed source ranking: local outranks
// bootstrap, which outranks replicated. Within an origin, the highest
// version wins. Use this when a directly registered copy must shadow
// whatever replication delivers.
func OriginRank[V any]() ViewPolicy[V] {
	return func(a, b VersionedCopy[V]) int {
		if d := cmp.Compare(originRank(a.Source.Origin), originRank(b.Source.Origin)); d != 0 {
			return d
		}
		return cmp.Compare(a.Version, b.Version)
	}
}

func originRank(o source.Origin) int {
	switch o {
	case source.OriginLocal:
		return 2
	case source.OriginBootstrap:
		return 1
	case source.OriginReplicated:
		return 0
	}
	return -1
}

// compareSources is the final tie-break. It orders sources by their
// field values, which is arbitrary but stable.
func compareSources(a, b source.Source) int {
	if d := cmp.Compare(a.Origin, b.Origin); d != 0 {
		return d
	}
	if d := cmp.Compare(a.Name, b.Name); d != 0 {
		return d
	}
	return cmp.Compare(a.ID, b.ID)
}
