// Package dagtest provides graph fixtures for tests of packages built on dag.
package dagtest

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/matzehuels/logtower/pkg/dag"
)

// Commits parses "hash parent..." lines into commit records.
func Commits(lines ...string) []dag.Commit {
	out := make([]dag.Commit, len(lines))
	for i, l := range lines {
		f := strings.Fields(l)
		out[i] = dag.Commit{Hash: f[0], Parents: f[1:]}
	}
	return out
}

// Graph builds a graph from "hash parent..." lines.
func Graph(lines ...string) *dag.PermanentGraph {
	return dag.Build(Commits(lines...))
}

// RandomCommits returns n newest-first commits named c0..c{n-1} where every
// parent has a larger index. About one in maxHeads commits starts a new
// branch (has no child), so the result usually has several heads.
func RandomCommits(r *rand.Rand, n, maxHeads int) []dag.Commit {
	cs := make([]dag.Commit, n)
	for i := range cs {
		cs[i].Hash = fmt.Sprintf("c%d", i)
		if i == n-1 {
			continue
		}
		parents := 1
		if r.Intn(4) == 0 {
			parents = 2
		}
		for j := 0; j < parents; j++ {
			p := i + 1 + r.Intn(min(maxHeads+1, n-i-1))
			cs[i].Parents = append(cs[i].Parents, fmt.Sprintf("c%d", p))
		}
	}
	return cs
}

// Ancestors returns every node reachable from start over down-edges,
// start included, using a plain recursive search.
func Ancestors(g *dag.PermanentGraph, start int) map[int]bool {
	seen := map[int]bool{}
	var visit func(int)
	visit = func(n int) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, p := range g.DownNodes(n) {
			visit(p)
		}
	}
	visit(start)
	return seen
}

// HashIndexes maps hash strings of g to their hash indices.
// It panics on an unknown hash.
func HashIndexes(g *dag.PermanentGraph, hashes ...string) []int {
	out := make([]int, len(hashes))
	for i, h := range hashes {
		idx, ok := g.Hashes().Index(h)
		if !ok {
			panic("dagtest: unknown hash " + h)
		}
		out[i] = idx
	}
	return out
}

// Nodes maps hash strings of g to node indices. It panics on an unknown or
// unloaded hash.
func Nodes(g *dag.PermanentGraph, hashes ...string) []int {
	out := make([]int, len(hashes))
	for i, h := range hashes {
		n, ok := g.NodeByHash(h)
		if !ok {
			panic("dagtest: unknown node " + h)
		}
		out[i] = n
	}
	return out
}
