package view

import (
	"github.com/matzehuels/logtower/pkg/branches"
	"github.com/matzehuels/logtower/pkg/dag"
)

// DefaultMinFragment is the shortest linear run a [CollapsedView] folds.
const DefaultMinFragment = 3

// Fragment is a linear run of commits between two visible ends.
//
// Every commit in Nodes has exactly one visible child and exactly one
// parent, which is loaded. Upper is the child of Nodes[0] and Lower the parent
// of the last entry. Nodes is ordered newest first.
type Fragment struct {
	Upper int
	Lower int
	Nodes []int
}

// CollapsedView shows every commit of the selected branches and can hide
// linear fragments behind a single [EdgeCollapsed] edge.
type CollapsedView struct {
	base
	minFragment int

	fragments  []Fragment
	fragmentOf []int        // node -> fragment index, -1 when not inside one
	collapsed  map[int]bool // keyed by the fragment's first (newest) node
}

// NewCollapsedView builds a fully expanded view. Fragments shorter than
// minFragment commits are never collapsed; values below 1 select
// [DefaultMinFragment].
func NewCollapsedView(cb *branches.CurrentBranches, layout *dag.Layout, minFragment int) *CollapsedView {
	if minFragment < 1 {
		minFragment = DefaultMinFragment
	}
	v := &CollapsedView{
		base:        newBase(cb, layout, EdgeCollapsed),
		minFragment: minFragment,
		fragmentOf:  make([]int, cb.Graph().NodeCount()),
		collapsed:   make(map[int]bool),
	}
	v.Refresh()
	return v
}

// SetVisibleBranches changes the branch selection and rebuilds the view.
// Collapse state survives for fragments that still exist.
func (v *CollapsedView) SetVisibleBranches(heads []int) error {
	if err := v.branches.SetVisibleBranches(heads); err != nil {
		return err
	}
	v.Refresh()
	return nil
}

// Fragments returns the collapsible fragments under the current selection.
func (v *CollapsedView) Fragments() []Fragment { return v.fragments }

// Refresh recomputes fragments and rows from the current branch selection.
func (v *CollapsedView) Refresh() {
	v.findFragments()
	v.rebuild(func(node int) bool {
		f := v.fragmentOf[node]
		return f < 0 || !v.collapsed[v.fragments[f].Nodes[0]]
	})
}

func (v *CollapsedView) visibleUp(node int) (int, int) {
	count, last := 0, -1
	for _, up := range v.graph.UpNodes(node) {
		if v.branches.IsVisible(up) {
			count++
			last = up
		}
	}
	return count, last
}

func (v *CollapsedView) linear(node int) bool {
	if !v.branches.IsVisible(node) || len(v.graph.DownEdges(node)) != 1 || len(v.graph.DownNodes(node)) != 1 {
		return false
	}
	n, _ := v.visibleUp(node)
	return n == 1
}

// findFragments collects maximal linear runs of at least minFragment commits
// and drops collapse state of fragments that no longer exist.
func (v *CollapsedView) findFragments() {
	v.fragments = v.fragments[:0]
	for i := range v.fragmentOf {
		v.fragmentOf[i] = -1
	}

	for node := range v.fragmentOf {
		if !v.linear(node) {
			continue
		}
		_, upper := v.visibleUp(node)
		if v.linear(upper) {
			continue // not the newest commit of its run
		}
		var nodes []int
		current := node
		for v.linear(current) {
			nodes = append(nodes, current)
			current = v.graph.DownNodes(current)[0]
		}
		if len(nodes) < v.minFragment {
			continue
		}
		for _, n := range nodes {
			v.fragmentOf[n] = len(v.fragments)
		}
		v.fragments = append(v.fragments, Fragment{Upper: upper, Lower: current, Nodes: nodes})
	}

	for key := range v.collapsed {
		if f := v.fragmentOf[key]; f < 0 || v.fragments[f].Nodes[0] != key {
			delete(v.collapsed, key)
		}
	}
}

// PerformAction handles collapse and expand interactions.
//
//   - ActionCollapseAll and ActionExpandAll fold or unfold every fragment.
//   - ActionClickNode on a commit inside a fragment collapses it and returns
//     the row of the fragment's upper end.
//   - ActionClickEdge on a collapsed edge expands the fragments it stands for
//     and returns the row of the first revealed commit.
//
// Everything else returns [NoRow].
func (v *CollapsedView) PerformAction(a Action) (int, error) {
	switch a.Kind {
	case ActionCollapseAll:
		for _, f := range v.fragments {
			v.collapsed[f.Nodes[0]] = true
		}
		v.Refresh()
		return NoRow, nil

	case ActionExpandAll:
		clear(v.collapsed)
		v.Refresh()
		return NoRow, nil

	case ActionClickNode:
		node, err := v.IndexInPermanentGraph(a.Row)
		if err != nil {
			return NoRow, err
		}
		f := v.fragmentOf[node]
		if f < 0 {
			return NoRow, nil
		}
		frag := v.fragments[f]
		v.collapsed[frag.Nodes[0]] = true
		v.Refresh()
		row, _ := v.RowOf(frag.Upper)
		return row, nil

	case ActionClickEdge:
		e, ok, err := v.edgeBetween(a.Row, a.Target)
		if err != nil || !ok || e.Kind != EdgeCollapsed {
			return NoRow, err
		}
		upper, lower := v.rows[a.Row], v.rows[a.Target]
		if upper > lower {
			upper, lower = lower, upper
		}
		var revealed []int
		for _, f := range v.fragments {
			if f.Upper == upper && f.Lower == lower && v.collapsed[f.Nodes[0]] {
				delete(v.collapsed, f.Nodes[0])
				revealed = append(revealed, f.Nodes[0])
			}
		}
		v.Refresh()
		first := NoRow
		for _, n := range revealed {
			if row, ok := v.RowOf(n); ok && (first == NoRow || row < first) {
				first = row
			}
		}
		return first, nil

	default:
		return NoRow, nil
	}
}
