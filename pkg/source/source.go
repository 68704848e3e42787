// Package source loads commit logs from files and git repositories.
//
// A [Source] returns a [graph.Log]: commits newest first plus the refs that
// name branch heads. [FileSource] reads the JSON or TOML format of package
// graph; [GitSource] runs git log and git for-each-ref against a work tree.
//
// Sources are stateless. Every Load reads fresh data, and nothing is
// persisted.
package source

import (
	"context"
	"os"

	"github.com/matzehuels/logtower/pkg/errors"
	"github.com/matzehuels/logtower/pkg/graph"
)

// Source loads a commit log.
type Source interface {
	// Load reads the log. It honors ctx cancellation where the
	// underlying I/O allows it.
	Load(ctx context.Context) (*graph.Log, error)

	// Name identifies the source in logs and cache keys.
	Name() string
}

// FileSource reads a JSON or TOML log file.
type FileSource struct {
	Path string
}

// Load reads and decodes the file.
func (s FileSource) Load(ctx context.Context) (*graph.Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return graph.ReadLogFile(s.Path)
}

// Name returns the file path.
func (s FileSource) Name() string { return "file:" + s.Path }

// Open picks a source for target: a directory becomes a [GitSource], a
// regular file a [FileSource]. A missing target fails with
// errors.ErrCodeFileNotFound.
func Open(target string, opts ...GitOption) (Source, error) {
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no such log or repository: %s", target)
		}
		return nil, err
	}
	if info.IsDir() {
		return NewGitSource(target, opts...), nil
	}
	if _, err := graph.FormatFromPath(target); err != nil {
		return nil, err
	}
	return FileSource{Path: target}, nil
}
