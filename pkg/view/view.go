package view

import (
	"slices"

	"github.com/matzehuels/logtower/pkg/branches"
	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/errors"
)

// NoRow is returned by [View.PerformAction] when the action causes no jump.
const NoRow = -1

// View is the row projection of a commit graph.
type View interface {
	// CountVisibleNodes returns the number of rows.
	CountVisibleNodes() int

	// IndexInPermanentGraph returns the node shown at row. A row outside
	// [0, CountVisibleNodes()) fails with errors.ErrCodeRowOutOfRange.
	IndexInPermanentGraph(row int) (int, error)

	// RowOf returns the row showing node, and false when node is hidden.
	RowOf(node int) (int, bool)

	// RowInfo describes the commit shown at row.
	RowInfo(row int) (RowInfo, error)

	// UpRows returns the edges from row toward newer rows.
	UpRows(row int) ([]Edge, error)

	// DownRows returns the edges from row toward older rows, including
	// parents outside the loaded window.
	DownRows(row int) ([]Edge, error)

	// SetVisibleBranches changes the branch selection and rebuilds the view.
	SetVisibleBranches(heads []int) error

	// PerformAction applies a UI action and returns the row to jump to, or
	// NoRow.
	PerformAction(a Action) (int, error)
}

// RowInfo describes one visible row.
type RowInfo struct {
	Row         int `json:"row"`
	NodeIndex   int `json:"node"`
	HashIndex   int `json:"hash_index"`
	OneOfHeads  int `json:"head"` // head node that claimed this commit in the layout, or -1
	LayoutIndex int `json:"layout_index"`
}

// EdgeKind classifies an edge between rows.
type EdgeKind int

const (
	// EdgeUsual connects two adjacent commits that are both visible.
	EdgeUsual EdgeKind = iota
	// EdgeDotted skips commits hidden by a filter.
	EdgeDotted
	// EdgeCollapsed stands for a collapsed linear fragment.
	EdgeCollapsed
	// EdgeNotLoaded points at a parent outside the loaded window.
	EdgeNotLoaded
)

var edgeKindNames = [...]string{"usual", "dotted", "collapsed", "not-loaded"}

func (k EdgeKind) String() string {
	if k < 0 || int(k) >= len(edgeKindNames) {
		return "unknown"
	}
	return edgeKindNames[k]
}

// Edge connects a row to another row. Row is -1 for [EdgeNotLoaded] edges;
// Hash is the hash index of the far end and is always set.
type Edge struct {
	Row  int      `json:"row"`
	Hash int      `json:"hash_index"`
	Kind EdgeKind `json:"kind"`
}

// ActionKind enumerates UI interactions.
type ActionKind int

const (
	ActionClickNode ActionKind = iota
	ActionClickEdge
	ActionHover
	ActionCollapseAll
	ActionExpandAll
)

var actionNames = map[string]ActionKind{
	"click-node":   ActionClickNode,
	"click-edge":   ActionClickEdge,
	"hover":        ActionHover,
	"collapse-all": ActionCollapseAll,
	"expand-all":   ActionExpandAll,
}

// ParseActionKind parses the names used by the CLI and HTTP API
// ("click-node", "click-edge", "hover", "collapse-all", "expand-all").
func ParseActionKind(s string) (ActionKind, error) {
	if k, ok := actionNames[s]; ok {
		return k, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidAction, "unknown action %q", s)
}

func (k ActionKind) String() string {
	for name, kind := range actionNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Action is a UI interaction at a row. For edge clicks Target is the row at
// the other end of the clicked edge.
type Action struct {
	Kind   ActionKind
	Row    int
	Target int
}

// base holds the row mapping and the traversal scratch shared by both views.
type base struct {
	branches *branches.CurrentBranches
	graph    *dag.PermanentGraph
	layout   *dag.Layout
	hidden   EdgeKind // kind of edges that pass through hidden commits

	rows  []int // row -> node
	rowOf []int // node -> row, -1 when hidden

	temp    *dag.Flags
	touched []int
}

func newBase(cb *branches.CurrentBranches, layout *dag.Layout, hidden EdgeKind) base {
	g := cb.Graph()
	return base{
		branches: cb,
		graph:    g,
		layout:   layout,
		hidden:   hidden,
		rowOf:    make([]int, g.NodeCount()),
		temp:     dag.NewFlags(g.NodeCount()),
	}
}

// rebuild recomputes rows from branch visibility and show.
func (b *base) rebuild(show func(node int) bool) {
	b.rows = b.rows[:0]
	for node := range b.rowOf {
		if b.branches.IsVisible(node) && show(node) {
			b.rowOf[node] = len(b.rows)
			b.rows = append(b.rows, node)
		} else {
			b.rowOf[node] = -1
		}
	}
}

func (b *base) CountVisibleNodes() int { return len(b.rows) }

func (b *base) IndexInPermanentGraph(row int) (int, error) {
	if row < 0 || row >= len(b.rows) {
		return 0, errors.RowOutOfRange(row, len(b.rows))
	}
	return b.rows[row], nil
}

func (b *base) RowOf(node int) (int, bool) {
	if node < 0 || node >= len(b.rowOf) || b.rowOf[node] < 0 {
		return -1, false
	}
	return b.rowOf[node], true
}

func (b *base) RowInfo(row int) (RowInfo, error) {
	node, err := b.IndexInPermanentGraph(row)
	if err != nil {
		return RowInfo{}, err
	}
	info := RowInfo{
		Row:        row,
		NodeIndex:  node,
		HashIndex:  b.graph.HashIndex(node),
		OneOfHeads: -1,
	}
	if b.layout != nil {
		info.OneOfHeads = b.layout.OneOfHeadNodeIndex(node)
		info.LayoutIndex = b.layout.LayoutIndex(node)
	}
	return info, nil
}

func (b *base) UpRows(row int) ([]Edge, error) {
	node, err := b.IndexInPermanentGraph(row)
	if err != nil {
		return nil, err
	}
	var edges []Edge
	for _, up := range b.graph.UpNodes(node) {
		edges = b.appendEdges(edges, up, b.graph.UpNodes)
	}
	return normalize(edges), nil
}

func (b *base) DownRows(row int) ([]Edge, error) {
	node, err := b.IndexInPermanentGraph(row)
	if err != nil {
		return nil, err
	}
	var edges, notLoaded []Edge
	for _, e := range b.graph.DownEdges(node) {
		if !e.Loaded {
			notLoaded = append(notLoaded, Edge{Row: -1, Hash: e.Hash, Kind: EdgeNotLoaded})
			continue
		}
		edges = b.appendEdges(edges, e.Node, b.graph.DownNodes)
	}
	return append(normalize(edges), notLoaded...), nil
}

// appendEdges adds the edge to neighbor, or, when neighbor is hidden, an edge
// of the view's hidden kind to every visible commit reached through hidden
// commits in the same direction.
func (b *base) appendEdges(edges []Edge, neighbor int, next func(int) []int) []Edge {
	if !b.branches.IsVisible(neighbor) {
		return edges
	}
	if r := b.rowOf[neighbor]; r >= 0 {
		return append(edges, Edge{Row: r, Hash: b.graph.HashIndex(neighbor), Kind: EdgeUsual})
	}
	b.through(neighbor, next, func(n int) {
		edges = append(edges, Edge{Row: b.rowOf[n], Hash: b.graph.HashIndex(n), Kind: b.hidden})
	})
	return edges
}

// through walks from the hidden commit start across hidden commits and calls
// found for each visible commit at the border. Scratch flags are reset by
// undoing only the touched entries, so the cost is bounded by the walk.
func (b *base) through(start int, next func(int) []int, found func(int)) {
	defer b.resetTemp()
	b.mark(start)
	dag.Walk(start, func(current int) int {
		for _, n := range next(current) {
			if b.temp.Get(n) || !b.branches.IsVisible(n) {
				continue
			}
			b.mark(n)
			if b.rowOf[n] >= 0 {
				found(n)
				continue
			}
			return n
		}
		return dag.NodeNotFound
	})
}

func (b *base) mark(n int) {
	b.temp.Set(n, true)
	b.touched = append(b.touched, n)
}

func (b *base) resetTemp() {
	for _, n := range b.touched {
		b.temp.Set(n, false)
	}
	b.touched = b.touched[:0]
}

// normalize sorts loaded edges by row and keeps one edge per row,
// preferring the lowest kind.
func normalize(edges []Edge) []Edge {
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return int(a.Kind) - int(b.Kind)
	})
	return slices.CompactFunc(edges, func(a, b Edge) bool { return a.Row == b.Row })
}

// edgeBetween returns the edge from row to target in either direction.
func (b *base) edgeBetween(row, target int) (Edge, bool, error) {
	down, err := b.DownRows(row)
	if err != nil {
		return Edge{}, false, err
	}
	up, err := b.UpRows(row)
	if err != nil {
		return Edge{}, false, err
	}
	for _, e := range append(down, up...) {
		if e.Row == target && e.Kind != EdgeNotLoaded {
			return e, true, nil
		}
	}
	return Edge{}, false, nil
}
