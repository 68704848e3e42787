package branches

import (
	"math/rand"
	"testing"

	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/dag/dagtest"
	"github.com/matzehuels/logtower/pkg/errors"
)

func visibleSet(c *CurrentBranches) map[int]bool {
	out := map[int]bool{}
	for i := 0; i < c.Flags().Size(); i++ {
		if c.IsVisible(i) {
			out[i] = true
		}
	}
	return out
}

func TestNewCurrentBranchesAllVisible(t *testing.T) {
	g := dagtest.Graph("c b", "b a", "a")
	c := NewCurrentBranches(g)

	if got := c.Flags().Count(); got != 3 {
		t.Errorf("visible count = %d, want 3", got)
	}
	if c.VisibleHeads() != nil {
		t.Errorf("VisibleHeads() = %v, want nil", c.VisibleHeads())
	}
}

func TestSetVisibleBranchesSiblings(t *testing.T) {
	// A is the common root, B and C branch off it.
	g := dagtest.Graph("A", "B A", "C A")
	c := NewCurrentBranches(g)

	if err := c.SetVisibleBranches(dagtest.HashIndexes(g, "B")); err != nil {
		t.Fatalf("SetVisibleBranches: %v", err)
	}

	nodes := dagtest.Nodes(g, "A", "B", "C")
	if !c.IsVisible(nodes[0]) || !c.IsVisible(nodes[1]) {
		t.Errorf("A and B should be visible")
	}
	if c.IsVisible(nodes[2]) {
		t.Errorf("C should not be visible")
	}
}

func TestSetVisibleBranchesNilShowsAll(t *testing.T) {
	g := dagtest.Graph("c b", "d b", "b")
	c := NewCurrentBranches(g)

	if err := c.SetVisibleBranches(dagtest.HashIndexes(g, "c")); err != nil {
		t.Fatal(err)
	}
	if got := c.Flags().Count(); got != 2 {
		t.Fatalf("visible count = %d, want 2", got)
	}
	if err := c.SetVisibleBranches(nil); err != nil {
		t.Fatal(err)
	}
	if got := c.Flags().Count(); got != 3 {
		t.Errorf("visible count after reset = %d, want 3", got)
	}
}

func TestSetVisibleBranchesUnknownHead(t *testing.T) {
	g := dagtest.Graph("b a", "a")
	c := NewCurrentBranches(g)
	if err := c.SetVisibleBranches(dagtest.HashIndexes(g, "b")); err != nil {
		t.Fatal(err)
	}
	before := visibleSet(c)

	tests := []struct {
		name  string
		heads []int
	}{
		{"unknown hash index", []int{99}},
		{"negative hash index", []int{-1}},
		{"duplicate head", []int{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SetVisibleBranches(tt.heads)
			if !errors.Is(err, errors.ErrCodeInvalidRequest) {
				t.Fatalf("SetVisibleBranches(%v) error = %v, want INVALID_REQUEST", tt.heads, err)
			}
			if got := visibleSet(c); len(got) != len(before) {
				t.Errorf("selection changed after failed call: %v, want %v", got, before)
			}
		})
	}
}

func TestSetVisibleBranchesUnloadedHead(t *testing.T) {
	// "x" is only known as a parent outside the loaded window.
	g := dagtest.Graph("b a", "a x")
	c := NewCurrentBranches(g)

	err := c.SetVisibleBranches(dagtest.HashIndexes(g, "x"))
	if !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestSetVisibleBranchesSubsetMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 25; round++ {
		g := dag.Build(dagtest.RandomCommits(r, 80, 4))
		heads := g.Heads()
		r.Shuffle(len(heads), func(i, j int) { heads[i], heads[j] = heads[j], heads[i] })
		cut := r.Intn(len(heads) + 1)

		toHashes := func(nodes []int) []int {
			out := make([]int, len(nodes))
			for i, n := range nodes {
				out[i] = g.HashIndex(n)
			}
			return out
		}

		small := NewCurrentBranches(g)
		if err := small.SetVisibleBranches(toHashes(heads[:cut])); err != nil {
			t.Fatal(err)
		}
		large := NewCurrentBranches(g)
		if err := large.SetVisibleBranches(toHashes(heads)); err != nil {
			t.Fatal(err)
		}

		want := map[int]bool{}
		for _, h := range heads[:cut] {
			for n := range dagtest.Ancestors(g, h) {
				want[n] = true
			}
		}
		for n := 0; n < g.NodeCount(); n++ {
			if small.IsVisible(n) != want[n] {
				t.Fatalf("round %d: IsVisible(%d) = %v, want %v", round, n, small.IsVisible(n), want[n])
			}
			if small.IsVisible(n) && !large.IsVisible(n) {
				t.Fatalf("round %d: node %d visible for subset but not for superset", round, n)
			}
		}
	}
}
