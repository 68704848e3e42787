package ordering

import (
	"context"
	"slices"

	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/errors"
)

const (
	// DefaultMaxLookback caps how far a segment may move up past older
	// commits from its splice point.
	DefaultMaxLookback = 50

	// DefaultMaxLayoutJump is the largest layout index difference between
	// the placed neighbors of consecutive branch commits that still keeps
	// them in one segment.
	DefaultMaxLayoutJump = 10
)

// None sets a threshold of zero: no lookback, or a split at every change of
// layout index.
const None = -1

// Options tunes a [FocusSorter]. Zero values select the defaults; [None]
// selects a threshold of zero.
type Options struct {
	MaxLookback   int
	MaxLayoutJump int
}

func (o Options) withDefaults() Options {
	o.MaxLookback = threshold(o.MaxLookback, DefaultMaxLookback)
	o.MaxLayoutJump = threshold(o.MaxLayoutJump, DefaultMaxLayoutJump)
	return o
}

func threshold(v, def int) int {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	}
	return v
}

// FocusSorter reorders commits so that every branch forms a contiguous run.
//
// Heads are processed in layout priority order. The first head's branch is
// laid out as is. Every later branch is split into segments and each
// segment is grafted in just above the already placed commits it descends
// from, so the result stays close to the default order and every commit
// stays above its parents.
type FocusSorter struct {
	Options Options
}

// NewFocusSorter returns a sorter with opts (zero fields use the defaults).
func NewFocusSorter(opts Options) *FocusSorter {
	return &FocusSorter{Options: opts}
}

// Sort builds the graph and layout for commits and returns the focused order
// in hash index space. Heads are prioritized by cmp (nil keeps input order).
// Input that violates the newest-first precondition fails with
// errors.ErrCodeInvalidInput.
func (s *FocusSorter) Sort(commits []dag.Commit, cmp dag.HeadComparator) ([]GraphCommit, error) {
	g := dag.Build(commits)
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid commit order")
	}
	return Project(g, s.Order(g, dag.NewLayout(g, cmp))), nil
}

// Order returns the focused node order of g. layout must have been built
// for g; its head order decides which branch is laid out first.
func (s *FocusSorter) Order(g *dag.PermanentGraph, layout *dag.Layout) []int {
	order, _ := s.OrderContext(context.Background(), g, layout)
	return order
}

// OrderContext is [FocusSorter.Order] with cancellation. A canceled walk
// stops inside the branch it is collecting and returns ctx.Err().
func (s *FocusSorter) OrderContext(ctx context.Context, g *dag.PermanentGraph, layout *dag.Layout) ([]int, error) {
	return newFocusState(g, layout, s.Options.withDefaults()).run(ctx)
}

func newFocusState(g *dag.PermanentGraph, layout *dag.Layout, opts Options) *focusState {
	return &focusState{
		g:      g,
		layout: layout,
		opts:   opts,
		placed: dag.NewFlags(g.NodeCount()),
		result: make([]int, 0, g.NodeCount()),
	}
}

func (st *focusState) run(ctx context.Context) ([]int, error) {
	for order, head := range st.layout.HeadNodeIndexes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if st.placed.Get(head) {
			continue
		}
		b, err := st.collect(ctx, head, st.layout.StartLayoutIndex(order))
		if err != nil {
			return nil, err
		}
		if len(st.result) == 0 {
			st.result = append(st.result, b.nodes...)
			continue
		}
		st.insert(b)
	}
	return st.result, nil
}

type focusState struct {
	g      *dag.PermanentGraph
	layout *dag.Layout
	opts   Options
	placed *dag.Flags
	result []int
}

// branch is one head's commits in node order plus, per commit, the already
// placed parents it is adjacent to.
type branch struct {
	nodes    []int
	adjacent map[int][]int
}

// collect gathers the commits of the head starting at layout index start.
// Parents with a lower layout index belong to earlier heads and are recorded
// as adjacent instead of walked.
func (st *focusState) collect(ctx context.Context, head, start int) (branch, error) {
	b := branch{adjacent: make(map[int][]int)}
	st.placed.Set(head, true)
	b.nodes = append(b.nodes, head)
	dag.Walk(head, dag.Cancellable(ctx, func(node int) int {
		for _, down := range st.g.DownNodes(node) {
			if st.placed.Get(down) {
				if st.layout.LayoutIndex(down) < start && !slices.Contains(b.adjacent[node], down) {
					b.adjacent[node] = append(b.adjacent[node], down)
				}
				continue
			}
			if st.layout.LayoutIndex(down) < start {
				continue
			}
			st.placed.Set(down, true)
			b.nodes = append(b.nodes, down)
			return down
		}
		return dag.NodeNotFound
	}))
	if err := ctx.Err(); err != nil {
		return branch{}, err
	}
	slices.Sort(b.nodes)
	return b, nil
}

// segment is a run of branch commits inserted at one splice point.
type segment struct {
	nodes    []int
	adjacent []int
}

// split cuts a branch wherever the layout index of the placed neighbors
// jumps by more than MaxLayoutJump. Commits without placed neighbors stay
// with the current segment.
func (st *focusState) split(b branch) []segment {
	var segs []segment
	cur := segment{}
	last := -1
	for _, node := range b.nodes {
		adj := b.adjacent[node]
		if len(adj) > 0 {
			li := st.minLayoutIndex(adj)
			if last >= 0 && abs(li-last) > st.opts.MaxLayoutJump {
				segs = append(segs, cur)
				cur = segment{}
			}
			last = li
			cur.adjacent = append(cur.adjacent, adj...)
		}
		cur.nodes = append(cur.nodes, node)
	}
	if len(cur.nodes) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

func (st *focusState) minLayoutIndex(nodes []int) int {
	m := st.layout.LayoutIndex(nodes[0])
	for _, n := range nodes[1:] {
		m = min(m, st.layout.LayoutIndex(n))
	}
	return m
}

// insert grafts the segments of b into the result, oldest segment first, so
// each newer segment lands above the older ones. A segment without placed
// neighbors is appended below everything placed so far (or directly above
// the older segment of its own branch).
func (st *focusState) insert(b branch) {
	segs := st.split(b)
	bound := len(st.result)
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		if len(seg.adjacent) == 0 {
			st.result = slices.Insert(st.result, bound, seg.nodes...)
			continue
		}
		idx := min(bound, st.earliest(seg.adjacent))
		for steps := 0; idx > 0 && steps < st.opts.MaxLookback && st.result[idx-1] > seg.nodes[0]; steps++ {
			idx--
		}
		st.result = slices.Insert(st.result, idx, seg.nodes...)
		bound = idx
	}
}

// earliest returns the smallest result position holding one of nodes.
func (st *focusState) earliest(nodes []int) int {
	want := make(map[int]struct{}, len(nodes))
	for _, n := range nodes {
		want[n] = struct{}{}
	}
	for i, n := range st.result {
		if _, ok := want[n]; ok {
			return i
		}
	}
	return len(st.result)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
