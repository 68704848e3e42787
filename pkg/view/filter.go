package view

import (
	"github.com/matzehuels/logtower/pkg/branches"
	"github.com/matzehuels/logtower/pkg/dag"
)

// FilterView shows the commits of the selected branches that satisfy a
// predicate. Edges through commits the predicate rejects are [EdgeDotted].
type FilterView struct {
	base
	pred Predicate
}

// NewFilterView builds a filter view. A nil predicate accepts every commit.
// layout may be nil, in which case [RowInfo.OneOfHeads] is -1.
func NewFilterView(cb *branches.CurrentBranches, layout *dag.Layout, pred Predicate) *FilterView {
	v := &FilterView{base: newBase(cb, layout, EdgeDotted), pred: pred}
	v.Refresh()
	return v
}

// SetFilter replaces the predicate and rebuilds the view.
func (v *FilterView) SetFilter(pred Predicate) {
	v.pred = pred
	v.Refresh()
}

// SetVisibleBranches changes the branch selection and rebuilds the view.
func (v *FilterView) SetVisibleBranches(heads []int) error {
	if err := v.branches.SetVisibleBranches(heads); err != nil {
		return err
	}
	v.Refresh()
	return nil
}

// Refresh rebuilds the rows from the current branch selection and predicate.
func (v *FilterView) Refresh() {
	if v.pred == nil {
		v.rebuild(func(int) bool { return true })
		return
	}
	v.rebuild(func(node int) bool { return v.pred(v.graph.HashIndex(node)) })
}

// PerformAction handles clicks on a filter view. Clicking a dotted edge jumps
// to its far end; every other action only selects and returns [NoRow].
func (v *FilterView) PerformAction(a Action) (int, error) {
	switch a.Kind {
	case ActionClickNode, ActionHover:
		if _, err := v.IndexInPermanentGraph(a.Row); err != nil {
			return NoRow, err
		}
		return NoRow, nil
	case ActionClickEdge:
		e, ok, err := v.edgeBetween(a.Row, a.Target)
		if err != nil || !ok || e.Kind != EdgeDotted {
			return NoRow, err
		}
		return e.Row, nil
	default:
		return NoRow, nil
	}
}
