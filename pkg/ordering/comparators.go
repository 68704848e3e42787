package ordering

import (
	"cmp"

	"github.com/matzehuels/logtower/pkg/dag"
)

// ByNodeIndex orders heads by node index, i.e. the newest head first.
func ByNodeIndex(a, b int) int { return cmp.Compare(a, b) }

// FocusFirst puts node first and orders the remaining heads by node index.
func FocusFirst(node int) dag.HeadComparator {
	return func(a, b int) int {
		switch {
		case a == b:
			return 0
		case a == node:
			return -1
		case b == node:
			return 1
		}
		return ByNodeIndex(a, b)
	}
}

// ByPriority orders heads by ascending priority value. Heads missing from
// priorities come last; ties fall back to node index.
func ByPriority(priorities map[int]int) dag.HeadComparator {
	return func(a, b int) int {
		pa, okA := priorities[a]
		pb, okB := priorities[b]
		switch {
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		case okA && okB && pa != pb:
			return cmp.Compare(pa, pb)
		}
		return ByNodeIndex(a, b)
	}
}
