package graph

import (
	"fmt"

	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/errors"
)

// =============================================================================
// Log - Commit Log Serialization
// =============================================================================

// Log is the canonical serialization format for a commit log.
// Commits are newest first; every loaded parent appears after its child.
type Log struct {
	Commits []Commit `json:"commits" toml:"commits"`
	Refs    []Ref    `json:"refs,omitempty" toml:"refs,omitempty"`
}

// Commit is one commit record. Only Hash and Parents feed the graph; the
// rest is display metadata.
type Commit struct {
	Hash    string   `json:"hash" toml:"hash"`
	Parents []string `json:"parents" toml:"parents,omitempty"`
	Author  string   `json:"author,omitempty" toml:"author,omitempty"`
	Time    int64    `json:"time,omitempty" toml:"time,omitempty"` // Unix seconds
	Subject string   `json:"subject,omitempty" toml:"subject,omitempty"`
}

// Ref kinds.
const (
	RefBranch = "branch"
	RefRemote = "remote"
	RefTag    = "tag"
)

// Ref names a commit, usually a branch head.
type Ref struct {
	Name string `json:"name" toml:"name"`
	Hash string `json:"hash" toml:"hash"`
	Kind string `json:"kind,omitempty" toml:"kind,omitempty"` // "branch" (default), "remote" or "tag"
}

// IsBranch reports whether the ref names a local or remote branch.
func (r Ref) IsBranch() bool { return r.Kind == "" || r.Kind == RefBranch || r.Kind == RefRemote }

// =============================================================================
// Log ↔ DAG Conversion
// =============================================================================

// DAGCommits returns the graph input records for the log.
func (l *Log) DAGCommits() []dag.Commit {
	out := make([]dag.Commit, len(l.Commits))
	for i, c := range l.Commits {
		out[i] = dag.Commit{Hash: c.Hash, Parents: c.Parents}
	}
	return out
}

// Graph builds the permanent graph for the log and checks its ordering.
// Invalid logs fail with errors.ErrCodeInvalidInput.
func (l *Log) Graph() (*dag.PermanentGraph, error) {
	g := dag.Build(l.DAGCommits())
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid commit log")
	}
	return g, nil
}

// Validate checks ref names and that no two refs of one kind share a name.
// Commit ordering is checked by [Log.Graph].
func (l *Log) Validate() error {
	seen := make(map[string]bool, len(l.Refs))
	for _, r := range l.Refs {
		if err := errors.ValidateRefName(r.Name); err != nil {
			return err
		}
		key := r.Kind + ":" + r.Name
		if r.Kind == "" {
			key = RefBranch + ":" + r.Name
		}
		if seen[key] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate ref %q", r.Name)
		}
		seen[key] = true
		if r.Hash == "" {
			return errors.New(errors.ErrCodeInvalidInput, "ref %q has no target", r.Name)
		}
	}
	return nil
}

// Ref returns the ref with the given name.
func (l *Log) Ref(name string) (Ref, bool) {
	for _, r := range l.Refs {
		if r.Name == name {
			return r, true
		}
	}
	return Ref{}, false
}

// BranchHeads resolves branch refs to node indices of g, in ref order.
// Refs pointing outside the loaded window are skipped; several refs on one
// commit yield one head.
func (l *Log) BranchHeads(g *dag.PermanentGraph) []int {
	var heads []int
	seen := make(map[int]bool)
	for _, r := range l.Refs {
		if !r.IsBranch() {
			continue
		}
		if n, ok := g.NodeByHash(r.Hash); ok && !seen[n] {
			seen[n] = true
			heads = append(heads, n)
		}
	}
	return heads
}

// RefsByNode groups ref names by the node they point at.
func (l *Log) RefsByNode(g *dag.PermanentGraph) map[int][]string {
	out := make(map[int][]string)
	for _, r := range l.Refs {
		if n, ok := g.NodeByHash(r.Hash); ok {
			out[n] = append(out[n], r.Name)
		}
	}
	return out
}

// ResolveHead resolves a ref name, full hash or unique hash prefix to a node
// of g. Unknown names fail with errors.ErrCodeNotFound.
func (l *Log) ResolveHead(g *dag.PermanentGraph, name string) (int, error) {
	if r, ok := l.Ref(name); ok {
		if n, ok := g.NodeByHash(r.Hash); ok {
			return n, nil
		}
		return 0, errors.New(errors.ErrCodeNotFound, "ref %q points outside the loaded log", name)
	}
	if n, ok := g.NodeByHash(name); ok {
		return n, nil
	}
	return l.resolvePrefix(g, name)
}

func (l *Log) resolvePrefix(g *dag.PermanentGraph, prefix string) (int, error) {
	if err := errors.ValidateHash(prefix); err != nil {
		return 0, errors.New(errors.ErrCodeNotFound, "unknown ref or commit %q", prefix)
	}
	found := -1
	for n := 0; n < g.NodeCount(); n++ {
		h := g.Hash(n)
		if len(h) >= len(prefix) && h[:len(prefix)] == prefix {
			if found >= 0 {
				return 0, errors.New(errors.ErrCodeInvalidRequest, "ambiguous commit prefix %q", prefix)
			}
			found = n
		}
	}
	if found < 0 {
		return 0, errors.New(errors.ErrCodeNotFound, "unknown ref or commit %q", prefix)
	}
	return found, nil
}

// String summarizes the log for logging.
func (l *Log) String() string {
	return fmt.Sprintf("log(%d commits, %d refs)", len(l.Commits), len(l.Refs))
}
