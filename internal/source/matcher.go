package source

// Matcher is a predicate over sources. It selects which copies an eviction
// pass removes, without the caller having to enumerate exact incarnations.
type Matcher func(Source) bool

// MatchSource matches exactly one source, incarnation included.
func MatchSource(want Source) Matcher {
	return func(s Source) bool { return s == want }
}

// MatchOriginName matches every incarnation of the given origin/name pair.
// This is the usual eviction key when a replication peer goes away: the
// peer's name is stable across reconnects but its incarnation ID is not.
func MatchOriginName(origin Origin, name string) Matcher {
	return func(s Source) bool { return s.Origin == origin && s.Name == name }
}

// MatchOrigin matches every source with the given origin.
func MatchOrigin(origin Origin) Matcher {
	return func(s Source) bool { return s.Origin == origin }
}
