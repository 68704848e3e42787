// Package session owns the mutable state of one log session.
//
// A [Session] bundles the immutable commit graph and layout with the state a
// UI changes: the branch selection, the filter and the collapse state of the
// active view. Sessions are not safe for concurrent use. Callers that share
// one (the HTTP API, the terminal browser) go through a [Handle], which runs
// every operation on a single owning goroutine.
//
// # Usage
//
//	log, _ := source.FileSource{Path: "history.json"}.Load(ctx)
//	sess, err := session.New(log, session.Options{View: session.ViewCollapsed})
//	if err != nil {
//	    return err
//	}
//	h := session.NewHandle(sess)
//	defer h.Close()
//
//	err = h.Do(ctx, func(s *session.Session) error {
//	    return s.SetVisibleBranches(ctx, []string{"main"})
//	})
//
// # Stores
//
// A [MemoryStore] keeps live handles for the API server and expires idle
// ones. A [FileStore] persists the selection ([State]) between runs of the
// terminal browser.
package session

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/logtower/pkg/branches"
	"github.com/matzehuels/logtower/pkg/dag"
	lterrors "github.com/matzehuels/logtower/pkg/errors"
	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/observability"
	"github.com/matzehuels/logtower/pkg/ordering"
	"github.com/matzehuels/logtower/pkg/view"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("session expired")

	// ErrClosed is returned by [Handle.Do] after the handle was closed.
	ErrClosed = errors.New("session closed")
)

// DefaultTTL is how long an idle session stays in a [MemoryStore].
const DefaultTTL = 30 * time.Minute

// ViewMode selects the view a session projects rows through.
type ViewMode string

const (
	// ViewCollapsed shows every commit and folds linear fragments on demand.
	ViewCollapsed ViewMode = "collapsed"
	// ViewFilter shows the commits matching a hash-prefix filter.
	ViewFilter ViewMode = "filter"
)

// ParseViewMode parses "collapsed" or "filter". The empty string selects
// [ViewCollapsed].
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case "", ViewCollapsed:
		return ViewCollapsed, nil
	case ViewFilter:
		return ViewFilter, nil
	}
	return "", lterrors.New(lterrors.ErrCodeInvalidRequest, "unknown view %q (want collapsed or filter)", s)
}

// Options configure a new session.
type Options struct {
	View        ViewMode
	MinFragment int      // see view.NewCollapsedView
	Filter      string   // initial hash prefix for ViewFilter, "!" inverts
	Branches    []string // initial selection; nil shows every branch

	// Priority names the branches the layout claims commits for first, in
	// order. Heads not listed follow in node order.
	Priority []string
}

// Session is one log opened for browsing.
type Session struct {
	ID        string
	CreatedAt time.Time

	log        *graph.Log
	graph      *dag.PermanentGraph
	layout     *dag.Layout
	current    *branches.CurrentBranches
	containing *branches.ContainingBranches
	heads      []int
	refs       map[int][]string
	branchRefs map[int][]string // head hash index -> branch names

	mode      ViewMode
	view      view.View
	collapsed *view.CollapsedView
	filter    *view.FilterView
	prefix    string
	selected  []string
	priority  []string
}

// New builds the graph and layout for log and opens the initial view.
func New(log *graph.Log, opts Options) (*Session, error) {
	mode, err := ParseViewMode(string(opts.View))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	g, err := log.Graph()
	if err != nil {
		return nil, err
	}
	headOrder, err := headPriority(log, g, opts.Priority)
	if err != nil {
		return nil, err
	}
	layout := dag.NewLayout(g, headOrder)
	observability.Pipeline().OnBuildComplete(context.Background(), g.NodeCount(), g.EdgeCount(), len(layout.HeadNodeIndexes()), time.Since(start))

	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		log:        log,
		graph:      g,
		layout:     layout,
		current:    branches.NewCurrentBranches(g),
		heads:      log.BranchHeads(g),
		refs:       log.RefsByNode(g),
		branchRefs: make(map[int][]string),
		mode:       mode,
		priority:   slices.Clone(opts.Priority),
	}
	s.containing = branches.NewContainingBranches(g, s.heads)
	for _, r := range log.Refs {
		if !r.IsBranch() {
			continue
		}
		if n, ok := g.NodeByHash(r.Hash); ok {
			h := g.HashIndex(n)
			s.branchRefs[h] = append(s.branchRefs[h], r.Name)
		}
	}

	switch mode {
	case ViewFilter:
		s.prefix = opts.Filter
		s.filter = view.NewFilterView(s.current, layout, s.predicate(opts.Filter))
		s.view = s.filter
	default:
		s.collapsed = view.NewCollapsedView(s.current, layout, opts.MinFragment)
		s.view = s.collapsed
	}

	if opts.Branches != nil {
		if err := s.SetVisibleBranches(context.Background(), opts.Branches); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// headPriority resolves the priority names to a head comparator. Nil
// names keep node order.
func headPriority(log *graph.Log, g *dag.PermanentGraph, names []string) (dag.HeadComparator, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ranks := make(map[int]int, len(names))
	for i, name := range names {
		n, err := log.ResolveHead(g, name)
		if err != nil {
			return nil, err
		}
		if _, ok := ranks[n]; !ok {
			ranks[n] = i
		}
	}
	return ordering.ByPriority(ranks), nil
}

// Log returns the commit log the session was opened from.
func (s *Session) Log() *graph.Log { return s.log }

// Graph returns the immutable commit graph.
func (s *Session) Graph() *dag.PermanentGraph { return s.graph }

// Layout returns the layout computed when the session was opened.
func (s *Session) Layout() *dag.Layout { return s.layout }

// View returns the active view.
func (s *Session) View() view.View { return s.view }

// Mode returns the active view mode.
func (s *Session) Mode() ViewMode { return s.mode }

// Filter returns the active hash prefix, empty for none.
func (s *Session) Filter() string { return s.prefix }

// Priority returns the branch names the layout was built with.
func (s *Session) Priority() []string { return s.priority }

// SelectedBranches returns the names passed to the last successful
// [Session.SetVisibleBranches], nil when every branch is shown.
func (s *Session) SelectedBranches() []string { return s.selected }

// Count returns the number of visible rows.
func (s *Session) Count() int { return s.view.CountVisibleNodes() }

// SetVisibleBranches selects branches by ref name, hash or unique hash
// prefix. Nil shows every branch. On error the selection is unchanged.
func (s *Session) SetVisibleBranches(ctx context.Context, names []string) error {
	var heads []int
	if names != nil {
		heads = make([]int, 0, len(names))
		for _, name := range names {
			n, err := s.log.ResolveHead(s.graph, name)
			if err != nil {
				return err
			}
			heads = append(heads, s.graph.HashIndex(n))
		}
	}
	start := time.Now()
	if err := s.view.SetVisibleBranches(heads); err != nil {
		return err
	}
	s.selected = slices.Clone(names)
	observability.View().OnRebuild(ctx, string(s.mode), s.Count(), time.Since(start))
	return nil
}

// SetFilter replaces the hash-prefix filter of a [ViewFilter] session. A
// prefix starting with "!" hides the matching commits instead; a bare "!"
// hides nothing.
func (s *Session) SetFilter(ctx context.Context, prefix string) error {
	if s.filter == nil {
		return lterrors.New(lterrors.ErrCodeUnsupported, "filter requires the %s view", ViewFilter)
	}
	start := time.Now()
	s.prefix = prefix
	s.filter.SetFilter(s.predicate(prefix))
	observability.View().OnRebuild(ctx, string(s.mode), s.Count(), time.Since(start))
	return nil
}

func (s *Session) predicate(prefix string) view.Predicate {
	if rest, ok := strings.CutPrefix(prefix, "!"); ok {
		if rest == "" {
			return nil
		}
		return view.Not(view.HashPrefix(s.graph.Hashes(), rest))
	}
	if prefix == "" {
		return nil
	}
	return view.HashPrefix(s.graph.Hashes(), prefix)
}

// PerformAction applies a to the active view and returns the row to jump to.
func (s *Session) PerformAction(ctx context.Context, a view.Action) (int, error) {
	row, err := s.view.PerformAction(a)
	observability.View().OnAction(ctx, a.Kind.String(), row, err)
	return row, err
}

// Row assembles the display record of one visible row.
func (s *Session) Row(row int) (graph.Row, error) {
	info, err := s.view.RowInfo(row)
	if err != nil {
		return graph.Row{}, err
	}
	up, err := s.view.UpRows(row)
	if err != nil {
		return graph.Row{}, err
	}
	down, err := s.view.DownRows(row)
	if err != nil {
		return graph.Row{}, err
	}

	c := s.log.Commits[info.NodeIndex]
	out := graph.Row{
		Row:     row,
		Hash:    c.Hash,
		Subject: c.Subject,
		Author:  c.Author,
		Time:    c.Time,
		Refs:    s.refs[info.NodeIndex],
		Layout:  info.LayoutIndex,
		Up:      s.links(up),
		Down:    s.links(down),
	}
	if info.OneOfHeads >= 0 {
		out.Head = s.graph.Hash(info.OneOfHeads)
	}
	return out, nil
}

func (s *Session) links(edges []view.Edge) []graph.Link {
	if len(edges) == 0 {
		return nil
	}
	out := make([]graph.Link, len(edges))
	hashes := s.graph.Hashes()
	for i, e := range edges {
		out[i] = graph.Link{Row: e.Row, Hash: hashes.Hash(e.Hash), Kind: e.Kind.String()}
	}
	return out
}

// Rows returns up to limit rows starting at offset. A limit of zero or less
// returns every row from offset on. An offset past the end yields no rows.
func (s *Session) Rows(offset, limit int) ([]graph.Row, error) {
	count := s.Count()
	if offset < 0 {
		return nil, lterrors.RowOutOfRange(offset, count)
	}
	end := count
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	if offset >= end {
		return nil, nil
	}
	rows := make([]graph.Row, 0, end-offset)
	for r := offset; r < end; r++ {
		row, err := s.Row(r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Containing returns the names of the branches that contain the commit
// named by ref (a ref name, hash or unique prefix), sorted.
func (s *Session) Containing(ref string) ([]string, error) {
	n, err := s.log.ResolveHead(s.graph, ref)
	if err != nil {
		return nil, err
	}
	return s.branchNames(s.containing.BranchHashIndexes(n)), nil
}

// ContainingAll answers [Session.Containing] for every ref, running the
// graph walks in parallel. Results are indexed like refs.
func (s *Session) ContainingAll(ctx context.Context, refs []string) ([][]string, error) {
	nodes := make([]int, len(refs))
	for i, ref := range refs {
		n, err := s.log.ResolveHead(s.graph, ref)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	sets, err := branches.BatchContaining(ctx, s.graph, s.heads, nodes, runtime.GOMAXPROCS(0))
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(sets))
	for i, set := range sets {
		out[i] = s.branchNames(set)
	}
	return out, nil
}

func (s *Session) branchNames(heads map[int]struct{}) []string {
	var names []string
	for h := range heads {
		names = append(names, s.branchRefs[h]...)
	}
	slices.Sort(names)
	return names
}

// Focus orders the whole graph so the branch named by ref and every branch
// merged into it appear as contiguous blocks, with ref's branch first in
// the layout. The result lists node indices in display order.
func (s *Session) Focus(ctx context.Context, ref string, opts ordering.Options) ([]int, error) {
	n, err := s.log.ResolveHead(s.graph, ref)
	if err != nil {
		return nil, err
	}
	head := s.layout.OneOfHeadNodeIndex(n)
	if head == dag.NodeNotFound {
		head = n
	}
	layout := dag.NewLayout(s.graph, ordering.FocusFirst(head))
	return ordering.NewFocusSorter(opts).OrderContext(ctx, s.graph, layout)
}
