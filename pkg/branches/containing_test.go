package branches

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/dag/dagtest"
)

func TestBranchHashIndexes(t *testing.T) {
	//   feature   main
	//      f2      m2
	//      f1      |
	//        \    m1
	//         base
	g := dagtest.Graph("m2 m1", "f2 f1", "f1 base", "m1 base", "base")
	heads := dagtest.Nodes(g, "m2", "f2")
	c := NewContainingBranches(g, heads)

	main, feature := g.HashIndex(heads[0]), g.HashIndex(heads[1])
	tests := []struct {
		commit string
		want   []int
	}{
		{"base", []int{main, feature}},
		{"m1", []int{main}},
		{"f1", []int{feature}},
		{"m2", []int{main}},
		{"f2", []int{feature}},
	}
	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			got := c.BranchHashIndexes(dagtest.Nodes(g, tt.commit)[0])
			if len(got) != len(tt.want) {
				t.Fatalf("BranchHashIndexes(%s) = %v, want %v", tt.commit, got, tt.want)
			}
			for _, h := range tt.want {
				if _, ok := got[h]; !ok {
					t.Errorf("BranchHashIndexes(%s) missing %d", tt.commit, h)
				}
			}
		})
	}
}

func TestBranchHashIndexesNoHeads(t *testing.T) {
	g := dagtest.Graph("b a", "a")
	c := NewContainingBranches(g, nil)
	if got := c.BranchHashIndexes(1); len(got) != 0 {
		t.Errorf("BranchHashIndexes = %v, want empty", got)
	}
}

func TestBranchHashIndexesMatchesReachability(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for round := 0; round < 20; round++ {
		g := dag.Build(dagtest.RandomCommits(r, 70, 5))
		heads := g.Heads()
		c := NewContainingBranches(g, heads)

		ancestors := make(map[int]map[int]bool, len(heads))
		for _, h := range heads {
			ancestors[h] = dagtest.Ancestors(g, h)
		}

		for node := 0; node < g.NodeCount(); node++ {
			got := c.BranchHashIndexes(node)
			for _, h := range heads {
				_, contained := got[g.HashIndex(h)]
				if contained != ancestors[h][node] {
					t.Fatalf("round %d: head %d contains %d = %v, want %v", round, h, node, contained, ancestors[h][node])
				}
			}
		}
	}
}

func TestBatchContaining(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	g := dag.Build(dagtest.RandomCommits(r, 200, 6))
	heads := g.Heads()
	nodes := make([]int, g.NodeCount())
	for i := range nodes {
		nodes[i] = i
	}

	got, err := BatchContaining(context.Background(), g, heads, nodes, 4)
	if err != nil {
		t.Fatalf("BatchContaining: %v", err)
	}

	single := NewContainingBranches(g, heads)
	for i, n := range nodes {
		want := single.BranchHashIndexes(n)
		if len(got[i]) != len(want) {
			t.Fatalf("node %d: got %v, want %v", n, got[i], want)
		}
		for h := range want {
			if _, ok := got[i][h]; !ok {
				t.Fatalf("node %d: missing head %d", n, h)
			}
		}
	}
}

func TestBatchContainingCanceled(t *testing.T) {
	g := dagtest.Graph("b a", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := BatchContaining(ctx, g, []int{0}, []int{0, 1}, 2); err == nil {
		t.Error("BatchContaining with canceled context should fail")
	}
}

// cancelAfter is a context that reports cancellation after n Err calls.
type cancelAfter struct {
	context.Context
	n int
}

func (c *cancelAfter) Err() error {
	if c.n <= 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func TestBranchHashIndexesCanceledMidWalk(t *testing.T) {
	lines := make([]string, 0, 1000)
	for i := 999; i > 0; i-- {
		lines = append(lines, fmt.Sprintf("c%d c%d", i, i-1))
	}
	lines = append(lines, "c0")
	g := dagtest.Graph(lines...)
	c := NewContainingBranches(g, dagtest.Nodes(g, "c999"))
	root := dagtest.Nodes(g, "c0")[0]

	ctx := &cancelAfter{Context: context.Background(), n: 10}
	got, err := c.BranchHashIndexesContext(ctx, root)
	if !errors.Is(err, context.Canceled) || got != nil {
		t.Errorf("BranchHashIndexesContext() = (%v, %v), want (nil, context.Canceled)", got, err)
	}

	if got := c.BranchHashIndexes(root); len(got) != 1 {
		t.Errorf("BranchHashIndexes after a canceled walk = %v, want the one head", got)
	}
}
