// Package dag provides the immutable commit graph used by every log query.
//
// # Overview
//
// A version-control log is a directed acyclic graph of commits. This package
// turns an ordered list of commit records into a [PermanentGraph] with dense
// node indices, and provides the two primitives every higher-level query is
// built from: [Flags], a reusable bit vector over node indices, and [Walk],
// an iterative depth-first traversal driven by a caller-supplied policy.
//
// # Basic Usage
//
// Commits are supplied newest first, the order git log --topo-order prints
// them. Each commit becomes the node whose index is its position:
//
//	g := dag.Build([]dag.Commit{
//	    {Hash: "c3", Parents: []string{"c2"}},
//	    {Hash: "c2", Parents: []string{"c1"}},
//	    {Hash: "c1"},
//	})
//	g.DownNodes(0) // [1]
//	g.UpNodes(1)   // [0]
//
// Parents that are not part of the input are kept as [DownEdge] values with
// Loaded == false, so consumers can still report them (by hash index) while
// every traversal treats them as dead ends.
//
// # Node and Hash Indices
//
// Algorithms work on node indices. A second index space, hash indices,
// identifies commit hashes through [Hashes]; it also covers parents outside
// the loaded window. Use [PermanentGraph.HashIndex] and
// [PermanentGraph.NodeIndex] to move between the two.
//
// # Traversal
//
// [Walk] never recurses, so histories with millions of commits cannot
// exhaust the goroutine stack. The policy decides which edge to follow next
// and marks visited nodes itself, usually in a [Flags] sized to the graph:
//
//	visited := dag.NewFlags(g.NodeCount())
//	visited.Set(start, true)
//	dag.Walk(start, func(node int) int {
//	    for _, p := range g.DownNodes(node) {
//	        if !visited.Get(p) {
//	            visited.Set(p, true)
//	            return p
//	        }
//	    }
//	    return dag.NodeNotFound
//	})
//
// # Layout
//
// [NewLayout] runs one DFS per head (a node without children) in the order
// given by a [HeadComparator] and assigns layout indices. The result answers
// "which head does this commit belong to" in O(log heads) and drives the
// focus-on-branch ordering in package ordering.
//
// # Concurrency
//
// [PermanentGraph] and [Layout] are immutable once built and safe for
// concurrent reads. [Flags] is scratch state and must be owned by one
// goroutine at a time.
package dag
