package view

import (
	"strings"

	"github.com/matzehuels/logtower/pkg/dag"
)

// Predicate decides whether the commit with the given hash index is shown.
type Predicate func(hashIndex int) bool

// HashPrefix accepts commits whose hash starts with prefix.
func HashPrefix(hashes *dag.Hashes, prefix string) Predicate {
	return func(h int) bool { return strings.HasPrefix(hashes.Hash(h), prefix) }
}

// HashSet accepts exactly the given hash indices.
func HashSet(indexes ...int) Predicate {
	set := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		set[i] = struct{}{}
	}
	return func(h int) bool {
		_, ok := set[h]
		return ok
	}
}

// And accepts commits every non-nil predicate accepts.
func And(preds ...Predicate) Predicate {
	return func(h int) bool {
		for _, p := range preds {
			if p != nil && !p(h) {
				return false
			}
		}
		return true
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(h int) bool { return !p(h) }
}
