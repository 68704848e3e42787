package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/logtower/pkg/cache"
	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/observability"
	"github.com/matzehuels/logtower/pkg/source"
)

// OpenSource resolves opts.Source to a log file or git repository source.
func OpenSource(opts Options) (source.Source, error) {
	return source.Open(opts.Source,
		source.WithGitBinary(opts.GitBinary),
		source.WithMaxCount(opts.MaxCount),
		source.WithRevisions(opts.Revisions...),
		source.WithPaths(opts.Paths...),
	)
}

// Load reads the commit log named by opts.Source.
func Load(ctx context.Context, opts Options) (*graph.Log, error) {
	src, err := OpenSource(opts)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Debug("opened source", "name", src.Name())
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, src.Name())
	start := time.Now()
	l, err := src.Load(ctx)
	commits := 0
	if l != nil {
		commits = len(l.Commits)
	}
	hooks.OnLoadComplete(ctx, src.Name(), commits, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// LogHash returns the content hash of l used in cache keys.
func LogHash(l *graph.Log) (string, error) {
	data, err := graph.MarshalLog(l, graph.FormatJSON)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
