package dag

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyHash is returned by [PermanentGraph.Validate] when a commit or
	// one of its parents has an empty hash.
	ErrEmptyHash = errors.New("commit hash must not be empty")

	// ErrDuplicateHash is returned by [PermanentGraph.Validate] when the same
	// hash occurs for two commits. The first occurrence owns the hash index
	// mapping; the later node is unreachable by hash.
	ErrDuplicateHash = errors.New("duplicate commit hash")

	// ErrParentBeforeChild is returned by [PermanentGraph.Validate] when a
	// loaded parent has a node index lower than or equal to its child. Input
	// must be newest first (git log --topo-order order); the graph does not
	// re-sort.
	ErrParentBeforeChild = errors.New("parent appears before child in commit order")
)

// Commit is one input record: a commit hash and its parent hashes in the
// order the version-control system reports them (first parent first).
type Commit struct {
	Hash    string
	Parents []string
}

// DownEdge is an edge from a node toward one of its parents.
//
// A parent outside the loaded commit window has Loaded == false and no node
// index; Node is then meaningless and must not be used as an index. Hash is
// always valid.
type DownEdge struct {
	Node   int  // Parent node index, valid only when Loaded
	Hash   int  // Parent hash index
	Loaded bool // Parent is part of the graph
}

// PermanentGraph is the immutable commit DAG for one log session.
//
// Node indices follow input order: node 0 is the first (newest) commit.
// Up-nodes point toward newer commits (children), down-nodes toward parents.
// After [Build] returns nothing mutates the graph, so it may be read from any
// number of goroutines without locking.
type PermanentGraph struct {
	hashes    *Hashes
	nodeHash  []int // node -> hash index
	hashNode  []int // hash index -> node, -1 when not loaded
	downEdges [][]DownEdge
	downNodes [][]int
	upNodes   [][]int
}

// Build constructs a PermanentGraph from commits in newest-first order.
//
// Each commit gets the node index equal to its position. Parent hashes are
// resolved to node indices where present; other parents become DownEdges
// with Loaded == false. Up-edges are derived from a single scan over the
// down-edges, so up-node lists come out in ascending node order.
//
// Build runs in O(commits + edges) and does not check the ordering
// precondition; call [PermanentGraph.Validate] when input is untrusted.
func Build(commits []Commit) *PermanentGraph {
	n := len(commits)
	hashes := NewHashes(n)
	nodeHash := make([]int, n)
	for i, c := range commits {
		nodeHash[i] = hashes.Put(c.Hash)
	}

	hashNode := make([]int, hashes.Len(), hashes.Len()+n)
	for i := range hashNode {
		hashNode[i] = -1
	}
	for i := n - 1; i >= 0; i-- {
		hashNode[nodeHash[i]] = i
	}

	g := &PermanentGraph{
		hashes:    hashes,
		nodeHash:  nodeHash,
		downEdges: make([][]DownEdge, n),
		downNodes: make([][]int, n),
		upNodes:   make([][]int, n),
	}

	for i, c := range commits {
		if len(c.Parents) == 0 {
			continue
		}
		edges := make([]DownEdge, len(c.Parents))
		for j, p := range c.Parents {
			h := hashes.Put(p)
			for len(hashNode) <= h {
				hashNode = append(hashNode, -1)
			}
			if node := hashNode[h]; node >= 0 {
				edges[j] = DownEdge{Node: node, Hash: h, Loaded: true}
				g.downNodes[i] = append(g.downNodes[i], node)
			} else {
				edges[j] = DownEdge{Hash: h}
			}
		}
		g.downEdges[i] = edges
	}

	for i, down := range g.downNodes {
		for _, p := range down {
			g.upNodes[p] = append(g.upNodes[p], i)
		}
	}

	g.hashNode = hashNode
	return g
}

// NodeCount returns the number of loaded commits.
func (g *PermanentGraph) NodeCount() int { return len(g.nodeHash) }

// UpNodes returns the children of node in display order.
// The returned slice must not be modified.
func (g *PermanentGraph) UpNodes(node int) []int { return g.upNodes[node] }

// DownNodes returns the loaded parents of node in parent order.
// Parents outside the loaded window are omitted; see [PermanentGraph.DownEdges].
// The returned slice must not be modified.
func (g *PermanentGraph) DownNodes(node int) []int { return g.downNodes[node] }

// DownEdges returns every parent edge of node, loaded or not.
// The returned slice must not be modified.
func (g *PermanentGraph) DownEdges(node int) []DownEdge { return g.downEdges[node] }

// HashIndex returns the hash index of node.
func (g *PermanentGraph) HashIndex(node int) int { return g.nodeHash[node] }

// NodeIndex returns the node index for a hash index, and false when the
// hash is unknown or belongs to a parent outside the loaded window.
func (g *PermanentGraph) NodeIndex(hashIndex int) (int, bool) {
	if hashIndex < 0 || hashIndex >= len(g.hashNode) {
		return 0, false
	}
	n := g.hashNode[hashIndex]
	return n, n >= 0
}

// NodeByHash resolves a commit hash string to its node index.
func (g *PermanentGraph) NodeByHash(hash string) (int, bool) {
	h, ok := g.hashes.Index(hash)
	if !ok {
		return 0, false
	}
	return g.NodeIndex(h)
}

// Hash returns the commit hash string of node.
func (g *PermanentGraph) Hash(node int) string { return g.hashes.Hash(g.nodeHash[node]) }

// Hashes returns the hash interner shared by this graph.
func (g *PermanentGraph) Hashes() *Hashes { return g.hashes }

// Heads returns every node without up-nodes, in node order.
func (g *PermanentGraph) Heads() []int {
	var heads []int
	for i, up := range g.upNodes {
		if len(up) == 0 {
			heads = append(heads, i)
		}
	}
	return heads
}

// EdgeCount returns the number of loaded parent edges.
func (g *PermanentGraph) EdgeCount() int {
	n := 0
	for _, d := range g.downNodes {
		n += len(d)
	}
	return n
}

// Validate checks the input preconditions [Build] does not enforce.
//
// It returns [ErrEmptyHash] for an empty commit or parent hash,
// [ErrDuplicateHash] when two commits share a hash, and
// [ErrParentBeforeChild] when a loaded parent does not come after its child.
// Errors are wrapped with the offending hash. Validate runs in O(N+E).
func (g *PermanentGraph) Validate() error {
	for i, h := range g.nodeHash {
		if g.hashes.Hash(h) == "" {
			return fmt.Errorf("node %d: %w", i, ErrEmptyHash)
		}
		if g.hashNode[h] != i {
			return fmt.Errorf("%s: %w", g.hashes.Hash(h), ErrDuplicateHash)
		}
		for _, e := range g.downEdges[i] {
			if g.hashes.Hash(e.Hash) == "" {
				return fmt.Errorf("parent of %s: %w", g.hashes.Hash(h), ErrEmptyHash)
			}
			if e.Loaded && e.Node <= i {
				return fmt.Errorf("%s -> %s: %w", g.hashes.Hash(h), g.hashes.Hash(e.Hash), ErrParentBeforeChild)
			}
		}
	}
	return nil
}
