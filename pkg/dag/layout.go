package dag

import (
	"slices"
	"sort"
)

// HeadComparator orders head node indices. It follows the slices.SortFunc
// convention: negative when a has priority over b, zero when equal, positive
// otherwise. Heads that compare first claim shared history in the layout.
type HeadComparator func(a, b int) int

// Layout assigns every node a layout index and the head it belongs to.
//
// Layout indices start at 1. They increase every time the layout DFS
// finishes a path, so a first-parent chain shares one layout index and side
// branches get higher ones. Each head owns the contiguous range of layout
// indices handed out while its DFS ran, which makes [Layout.OneOfHeadNodeIndex]
// an O(log heads) lookup.
//
// A Layout is immutable after [NewLayout] returns.
type Layout struct {
	layoutIndex []int
	heads       []int // head node indices in priority order
	headStart   []int // first layout index assigned while walking heads[i]
}

// NewLayout computes the layout of g in a single O(N+E) pass.
//
// Heads are the nodes without up-nodes, sorted by cmp (nil keeps node order,
// i.e. newest first). For each head in order a DFS walks down-edges and gives
// every node it reaches for the first time the current layout index. Nodes
// reached earlier by a higher-priority head keep their index and head.
func NewLayout(g *PermanentGraph, cmp HeadComparator) *Layout {
	heads := g.Heads()
	if cmp != nil {
		slices.SortStableFunc(heads, cmp)
	}

	l := &Layout{
		layoutIndex: make([]int, g.NodeCount()),
		heads:       heads,
		headStart:   make([]int, len(heads)),
	}

	current := 1
	for i, head := range heads {
		l.headStart[i] = current
		Walk(head, func(node int) int {
			firstVisit := l.layoutIndex[node] == 0
			if firstVisit {
				l.layoutIndex[node] = current
			}
			for _, down := range g.DownNodes(node) {
				if l.layoutIndex[down] == 0 {
					return down
				}
			}
			if firstVisit {
				current++
			}
			return NodeNotFound
		})
	}
	return l
}

// LayoutIndex returns the layout index of node, or 0 if the node was never
// reached (only possible for cyclic input).
func (l *Layout) LayoutIndex(node int) int { return l.layoutIndex[node] }

// HeadNodeIndexes returns the heads in priority order.
// The returned slice must not be modified.
func (l *Layout) HeadNodeIndexes() []int { return l.heads }

// StartLayoutIndex returns the first layout index owned by the head at
// position order in [Layout.HeadNodeIndexes].
func (l *Layout) StartLayoutIndex(order int) int { return l.headStart[order] }

// HeadOrder returns the position in [Layout.HeadNodeIndexes] of the head that
// owns layoutIndex, or -1 for an unassigned index.
func (l *Layout) HeadOrder(layoutIndex int) int {
	if layoutIndex <= 0 {
		return -1
	}
	return sort.Search(len(l.headStart), func(i int) bool { return l.headStart[i] > layoutIndex }) - 1
}

// OneOfHeadNodeIndex returns the head whose layout DFS first reached node,
// or [NodeNotFound] if no head did.
func (l *Layout) OneOfHeadNodeIndex(node int) int {
	order := l.HeadOrder(l.layoutIndex[node])
	if order < 0 {
		return NodeNotFound
	}
	return l.heads[order]
}
