package view

import (
	"slices"
	"testing"

	"github.com/matzehuels/logtower/pkg/branches"
	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/dag/dagtest"
)

func chain() *dag.PermanentGraph {
	return dagtest.Graph("g f", "f e", "e d", "d c", "c b", "b a", "a")
}

func TestCollapsedViewFragments(t *testing.T) {
	g := chain()
	v := NewCollapsedView(branches.NewCurrentBranches(g), nil, 3)

	frags := v.Fragments()
	if len(frags) != 1 {
		t.Fatalf("Fragments() = %v, want 1 fragment", frags)
	}
	f := frags[0]
	if f.Upper != 0 || f.Lower != 6 || !slices.Equal(f.Nodes, []int{1, 2, 3, 4, 5}) {
		t.Errorf("fragment = %+v, want upper 0, lower 6, nodes 1..5", f)
	}

	short := NewCollapsedView(branches.NewCurrentBranches(g), nil, 6)
	if got := len(short.Fragments()); got != 0 {
		t.Errorf("fragments with minFragment 6 = %d, want 0", got)
	}
}

func TestCollapsedViewCollapseExpandAll(t *testing.T) {
	g := chain()
	v := NewCollapsedView(branches.NewCurrentBranches(g), nil, 3)

	if row, err := v.PerformAction(Action{Kind: ActionCollapseAll}); err != nil || row != NoRow {
		t.Fatalf("CollapseAll = %d, %v", row, err)
	}
	if got := v.CountVisibleNodes(); got != 2 {
		t.Fatalf("CountVisibleNodes() after collapse = %d, want 2", got)
	}
	down, err := v.DownRows(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(down) != 1 || down[0].Row != 1 || down[0].Kind != EdgeCollapsed {
		t.Errorf("DownRows(0) = %v, want collapsed edge to row 1", down)
	}

	if _, err := v.PerformAction(Action{Kind: ActionExpandAll}); err != nil {
		t.Fatal(err)
	}
	if got := v.CountVisibleNodes(); got != 7 {
		t.Errorf("CountVisibleNodes() after expand = %d, want 7", got)
	}
}

func TestCollapsedViewClick(t *testing.T) {
	g := chain()
	v := NewCollapsedView(branches.NewCurrentBranches(g), nil, 3)

	row, err := v.PerformAction(Action{Kind: ActionClickNode, Row: 3})
	if err != nil {
		t.Fatal(err)
	}
	if row != 0 {
		t.Errorf("ClickNode inside fragment = %d, want 0 (upper end)", row)
	}
	if got := v.CountVisibleNodes(); got != 2 {
		t.Fatalf("CountVisibleNodes() = %d, want 2", got)
	}

	row, err = v.PerformAction(Action{Kind: ActionClickEdge, Row: 0, Target: 1})
	if err != nil {
		t.Fatal(err)
	}
	if row != 1 {
		t.Errorf("ClickEdge on collapsed edge = %d, want 1 (first revealed)", row)
	}
	if got := v.CountVisibleNodes(); got != 7 {
		t.Errorf("CountVisibleNodes() = %d, want 7", got)
	}

	tests := []struct {
		name   string
		action Action
	}{
		{"click head", Action{Kind: ActionClickNode, Row: 0}},
		{"usual edge", Action{Kind: ActionClickEdge, Row: 0, Target: 1}},
		{"hover", Action{Kind: ActionHover, Row: 2}},
	}
	for _, tt := range tests {
		if row, err := v.PerformAction(tt.action); err != nil || row != NoRow {
			t.Errorf("%s = %d, %v, want NoRow", tt.name, row, err)
		}
	}
}

func TestCollapsedViewBranchSelection(t *testing.T) {
	// Side branch s3..s1 forks from b; main is g..a.
	g := dagtest.Graph("g f", "s3 s2", "f e", "s2 s1", "e d", "s1 b", "d c", "c b", "b a", "a")
	v := NewCollapsedView(branches.NewCurrentBranches(g), nil, 3)

	// With both branches visible b has two children and ends both runs.
	if got := len(v.Fragments()); got != 1 {
		t.Fatalf("fragments with all branches = %d, want 1", got)
	}
	if _, err := v.PerformAction(Action{Kind: ActionCollapseAll}); err != nil {
		t.Fatal(err)
	}

	if err := v.SetVisibleBranches(dagtest.HashIndexes(g, "s3")); err != nil {
		t.Fatal(err)
	}
	if got := v.CountVisibleNodes(); got != 5 {
		t.Errorf("CountVisibleNodes() for side branch = %d, want 5", got)
	}
	// b now has a single visible child, so s2, s1 and b form one run.
	frags := v.Fragments()
	if len(frags) != 1 || !slices.Equal(frags[0].Nodes, dagtest.Nodes(g, "s2", "s1", "b")) {
		t.Errorf("side branch fragments = %v, want run s2 s1 b", frags)
	}

	// The main-line fragment vanished with the selection, so is its state.
	if err := v.SetVisibleBranches(nil); err != nil {
		t.Fatal(err)
	}
	if got := v.CountVisibleNodes(); got != 10 {
		t.Errorf("CountVisibleNodes() after reset = %d, want 10", got)
	}
}
