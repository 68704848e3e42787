package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/logtower/pkg/errors"
	"github.com/matzehuels/logtower/pkg/graph"
)

const (
	fieldSep           = "\x1f"
	maxErrorSnippetLen = 200

	logFormat = "--format=%H%x1f%P%x1f%an%x1f%at%x1f%s"
	refFormat = "--format=%(refname)%1f%(objectname)%1f%(*objectname)"
)

// GitSource loads history from a git work tree by shelling out to git.
type GitSource struct {
	dir      string
	bin      string
	maxCount int
	revs     []string
	paths    []string
}

// GitOption configures a [GitSource].
type GitOption func(*GitSource)

// WithGitBinary overrides the command used to invoke git.
func WithGitBinary(path string) GitOption {
	return func(s *GitSource) {
		if strings.TrimSpace(path) != "" {
			s.bin = path
		}
	}
}

// WithMaxCount limits the number of commits read (git log -n). Zero or
// negative means no limit. Parents beyond the limit become unloaded edges.
func WithMaxCount(n int) GitOption {
	return func(s *GitSource) { s.maxCount = n }
}

// WithRevisions sets the revisions to walk. The default is --all.
func WithRevisions(revs ...string) GitOption {
	return func(s *GitSource) { s.revs = revs }
}

// WithPaths restricts history to commits touching the given repository
// relative paths.
func WithPaths(paths ...string) GitOption {
	return func(s *GitSource) { s.paths = paths }
}

// NewGitSource returns a source for the work tree at dir.
func NewGitSource(dir string, opts ...GitOption) *GitSource {
	s := &GitSource{dir: dir, bin: "git"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the repository directory.
func (s *GitSource) Name() string { return "git:" + s.dir }

// Load runs git log and git for-each-ref concurrently and assembles the log.
func (s *GitSource) Load(ctx context.Context) (*graph.Log, error) {
	for _, p := range s.paths {
		if err := errors.ValidatePath(p); err != nil {
			return nil, err
		}
	}

	var commits []graph.Commit
	var refs []graph.Ref
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := s.run(ctx, s.logArgs()...)
		if err != nil {
			return err
		}
		commits, err = parseLog(out)
		return err
	})
	eg.Go(func() error {
		out, err := s.run(ctx, "for-each-ref", refFormat, "refs/heads", "refs/remotes", "refs/tags")
		if err != nil {
			return err
		}
		refs = parseRefs(out)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	l := &graph.Log{Commits: commits, Refs: refs}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *GitSource) logArgs() []string {
	args := []string{"log", "--topo-order", logFormat}
	if s.maxCount > 0 {
		args = append(args, "-n", strconv.Itoa(s.maxCount))
	}
	if len(s.revs) == 0 {
		args = append(args, "--all")
	} else {
		args = append(args, s.revs...)
	}
	if len(s.paths) > 0 {
		args = append(args, "--")
		args = append(args, s.paths...)
	}
	return args
}

func (s *GitSource) run(ctx context.Context, args ...string) ([]byte, error) {
	finalArgs := append([]string{"-C", s.dir}, args...)
	//nolint:gosec // G204: the source intentionally shells out to git
	cmd := exec.CommandContext(ctx, s.bin, finalArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, formatCommandError(s.bin, finalArgs, err, stderr.Bytes())
	}
	return out, nil
}

func formatCommandError(bin string, args []string, cmdErr error, out []byte) error {
	snippet := strings.TrimSpace(string(out))
	if len(snippet) > maxErrorSnippetLen {
		snippet = snippet[:maxErrorSnippetLen] + "..."
	}
	command := append([]string{bin}, args...)
	if snippet == "" {
		return errors.Wrap(errors.ErrCodeInternal, cmdErr, "%s failed", strings.Join(command, " "))
	}
	return errors.Wrap(errors.ErrCodeInternal, cmdErr, "%s failed: %s", strings.Join(command, " "), snippet)
}

func parseLog(out []byte) ([]graph.Commit, error) {
	var commits []graph.Commit
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		f := strings.SplitN(line, fieldSep, 5)
		if len(f) != 5 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "malformed git log line: %q", line)
		}
		c := graph.Commit{Hash: f[0], Parents: strings.Fields(f[1]), Author: f[2], Subject: f[4]}
		if f[3] != "" {
			t, err := strconv.ParseInt(f[3], 10, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "commit %s: bad timestamp", f[0])
			}
			c.Time = t
		}
		commits = append(commits, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read git log: %w", err)
	}
	return commits, nil
}

func parseRefs(out []byte) []graph.Ref {
	var refs []graph.Ref
	for _, line := range strings.Split(string(out), "\n") {
		f := strings.Split(line, fieldSep)
		if len(f) != 3 {
			continue
		}
		name, hash, peeled := f[0], f[1], f[2]
		if peeled != "" {
			hash = peeled
		}
		var r graph.Ref
		switch {
		case strings.HasPrefix(name, "refs/heads/"):
			r = graph.Ref{Name: strings.TrimPrefix(name, "refs/heads/"), Hash: hash, Kind: graph.RefBranch}
		case strings.HasPrefix(name, "refs/remotes/"):
			if strings.HasSuffix(name, "/HEAD") {
				continue
			}
			r = graph.Ref{Name: strings.TrimPrefix(name, "refs/remotes/"), Hash: hash, Kind: graph.RefRemote}
		case strings.HasPrefix(name, "refs/tags/"):
			r = graph.Ref{Name: strings.TrimPrefix(name, "refs/tags/"), Hash: hash, Kind: graph.RefTag}
		default:
			continue
		}
		refs = append(refs, r)
	}
	return refs
}
