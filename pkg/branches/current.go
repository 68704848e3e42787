package branches

import (
	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/errors"
)

// CurrentBranches tracks which nodes are visible for the selected branch heads.
//
// A node is visible when it is a selected head or an ancestor of one. With no
// selection every node is visible.
type CurrentBranches struct {
	graph   *dag.PermanentGraph
	visible *dag.Flags
	heads   []int // selected head node indices, nil when everything is visible
}

// NewCurrentBranches returns a CurrentBranches over g with every node visible.
func NewCurrentBranches(g *dag.PermanentGraph) *CurrentBranches {
	visible := dag.NewFlags(g.NodeCount())
	visible.SetAll(true)
	return &CurrentBranches{graph: g, visible: visible}
}

// SetVisibleBranches selects the branch heads, given as hash indices.
//
// A nil slice makes every node visible. Otherwise each hash must resolve to a
// distinct loaded node; an unknown hash or a duplicate fails with
// [errors.ErrCodeInvalidRequest] and leaves the current selection untouched.
// On success the visibility flags are recomputed from scratch: each head and
// every loaded ancestor is marked visible. Nodes already marked are not
// walked again, so heads with shared history cost O(visible nodes) in total.
func (c *CurrentBranches) SetVisibleBranches(heads []int) error {
	if heads == nil {
		c.visible.SetAll(true)
		c.heads = nil
		return nil
	}

	resolved := make(map[int]struct{}, len(heads))
	nodes := make([]int, 0, len(heads))
	for _, h := range heads {
		node, ok := c.graph.NodeIndex(h)
		if !ok {
			return errors.New(errors.ErrCodeInvalidRequest, "unknown branch head: hash index %d", h)
		}
		if _, dup := resolved[node]; !dup {
			resolved[node] = struct{}{}
			nodes = append(nodes, node)
		}
	}
	if len(resolved) != len(heads) {
		return errors.New(errors.ErrCodeInvalidRequest,
			"branch heads must be distinct: %d requested, %d resolved", len(heads), len(resolved))
	}

	c.visible.SetAll(false)
	for _, head := range nodes {
		if c.visible.Get(head) {
			continue
		}
		c.visible.Set(head, true)
		dag.Walk(head, func(node int) int {
			for _, down := range c.graph.DownNodes(node) {
				if !c.visible.Get(down) {
					c.visible.Set(down, true)
					return down
				}
			}
			return dag.NodeNotFound
		})
	}
	c.heads = nodes
	return nil
}

// IsVisible reports whether node is visible under the current selection.
func (c *CurrentBranches) IsVisible(node int) bool { return c.visible.Get(node) }

// Flags returns the visibility flags. Callers must treat them as read-only;
// they change on the next call to [CurrentBranches.SetVisibleBranches].
func (c *CurrentBranches) Flags() *dag.Flags { return c.visible }

// VisibleHeads returns the selected head node indices, or nil when every
// node is visible.
func (c *CurrentBranches) VisibleHeads() []int { return c.heads }

// Graph returns the graph the selection applies to.
func (c *CurrentBranches) Graph() *dag.PermanentGraph { return c.graph }
