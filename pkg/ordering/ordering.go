// Package ordering produces alternative row orders for a commit graph.
//
// The default log order is the input order (newest first, topological). A
// [FocusSorter] instead keeps the commits of each branch together so one
// branch can be read top to bottom, while every commit still appears above
// its parents.
//
// Orders are expressed as node index sequences. [Project] turns such a
// sequence into [GraphCommit] records in hash index space, the form
// renderers and the wire format consume.
package ordering

import "github.com/matzehuels/logtower/pkg/dag"

// GraphCommit is a commit in hash index space: its own hash index and the
// hash indices of all its parents, loaded or not, in parent order.
type GraphCommit struct {
	Index   int   `json:"index"`
	Parents []int `json:"parents"`
}

// Project converts a node order of g into graph commits.
func Project(g *dag.PermanentGraph, order []int) []GraphCommit {
	out := make([]GraphCommit, len(order))
	for i, node := range order {
		edges := g.DownEdges(node)
		parents := make([]int, len(edges))
		for j, e := range edges {
			parents[j] = e.Hash
		}
		out[i] = GraphCommit{Index: g.HashIndex(node), Parents: parents}
	}
	return out
}
