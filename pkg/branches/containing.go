package branches

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/logtower/pkg/dag"
)

// ContainingBranches answers which registered branch heads contain a commit.
//
// A head contains a commit when the commit is the head itself or one of its
// ancestors. Queries walk up-edges from the commit toward newer history, so
// their cost is bounded by the number of descendants, not by history size.
type ContainingBranches struct {
	graph *dag.PermanentGraph
	heads map[int]struct{} // branch head node indices
	temp  *dag.Flags
}

// NewContainingBranches returns a getter for the given branch head node indices.
// Out-of-range heads are ignored.
func NewContainingBranches(g *dag.PermanentGraph, branchHeads []int) *ContainingBranches {
	heads := make(map[int]struct{}, len(branchHeads))
	for _, h := range branchHeads {
		if h >= 0 && h < g.NodeCount() {
			heads[h] = struct{}{}
		}
	}
	return &ContainingBranches{
		graph: g,
		heads: heads,
		temp:  dag.NewFlags(g.NodeCount()),
	}
}

// BranchHashIndexes returns the hash indices of every registered head that
// contains node. Each call walks from scratch and reuses the getter's
// scratch flags, so a getter must not be shared between goroutines.
func (c *ContainingBranches) BranchHashIndexes(node int) map[int]struct{} {
	result, _ := c.BranchHashIndexesContext(context.Background(), node)
	return result
}

// BranchHashIndexesContext is [ContainingBranches.BranchHashIndexes] with a
// walk that stops once ctx is done. A canceled walk returns ctx.Err() and no
// result.
func (c *ContainingBranches) BranchHashIndexesContext(ctx context.Context, node int) (map[int]struct{}, error) {
	result := make(map[int]struct{})
	c.temp.SetAll(false)
	c.temp.Set(node, true)
	c.collect(node, result)

	dag.Walk(node, dag.Cancellable(ctx, func(current int) int {
		for _, up := range c.graph.UpNodes(current) {
			if !c.temp.Get(up) {
				c.temp.Set(up, true)
				c.collect(up, result)
				return up
			}
		}
		return dag.NodeNotFound
	}))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *ContainingBranches) collect(node int, result map[int]struct{}) {
	if _, ok := c.heads[node]; ok {
		result[c.graph.HashIndex(node)] = struct{}{}
	}
}

// BatchContaining computes [ContainingBranches.BranchHashIndexes] for every
// node in nodes using up to workers goroutines (at least one). Results are
// indexed like nodes. The graph is shared; each worker owns its own getter.
// It stops early, mid-walk included, and returns ctx.Err() when ctx is
// canceled.
func BatchContaining(ctx context.Context, g *dag.PermanentGraph, heads, nodes []int, workers int) ([]map[int]struct{}, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(nodes) {
		workers = len(nodes)
	}
	results := make([]map[int]struct{}, len(nodes))
	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			getter := NewContainingBranches(g, heads)
			for i := w; i < len(nodes); i += workers {
				res, err := getter.BranchHashIndexesContext(ctx, nodes[i])
				if err != nil {
					return err
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
