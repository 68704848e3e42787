package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/logtower/pkg/cache"
	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/observability"
	"github.com/matzehuels/logtower/pkg/session"
	"github.com/matzehuels/logtower/pkg/view"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL caps the lifetime of cache entries. Zero keeps the per-kind
	// defaults (cache.TTLOrder, cache.TTLArtifact).
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the load → build → order → render pipeline with caching.
// Order runs only when opts.Focus is set, render only when opts.Formats is
// not empty.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	l, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Log = l
	result.Stats.LoadTime = time.Since(loadStart)
	if result.LogHash, err = LogHash(l); err != nil {
		return nil, fmt.Errorf("hash log: %w", err)
	}

	r.Logger.Info("loaded history",
		"source", opts.Source,
		"commits", len(l.Commits),
		"refs", len(l.Refs),
		"duration", result.Stats.LoadTime)

	// Stage 2: Build
	buildStart := time.Now()
	sess, err := r.Open(l, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Session = sess
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Commits = sess.Graph().NodeCount()
	result.Stats.Edges = sess.Graph().EdgeCount()
	result.Stats.Heads = len(sess.Layout().HeadNodeIndexes())
	result.Stats.Rows = sess.Count()

	r.Logger.Info("built graph",
		"nodes", result.Stats.Commits,
		"edges", result.Stats.Edges,
		"heads", result.Stats.Heads,
		"rows", result.Stats.Rows,
		"duration", result.Stats.BuildTime)

	// Stage 3: Order
	if opts.Focus != "" {
		orderStart := time.Now()
		order, hit, err := r.OrderWithCacheInfo(ctx, sess, result.LogHash, opts)
		if err != nil {
			return nil, fmt.Errorf("order: %w", err)
		}
		result.Order = order
		result.Stats.OrderTime = time.Since(orderStart)
		result.CacheInfo.OrderHit = hit

		r.Logger.Info("ordered commits",
			"focus", opts.Focus,
			"cached", hit,
			"duration", result.Stats.OrderTime)
	}

	// Stage 4: Render
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		artifacts, hit, err := r.RenderWithCacheInfo(ctx, sess, result.LogHash, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = hit

		r.Logger.Info("rendered outputs",
			"formats", opts.Formats,
			"cached", hit,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// Open builds a session for l with the view options of opts.
func (r *Runner) Open(l *graph.Log, opts Options) (*session.Session, error) {
	if err := opts.ValidateForSession(); err != nil {
		return nil, err
	}
	return session.New(l, opts.SessionOptions())
}

// OrderWithCacheInfo computes the focus order for opts.Focus and reports
// whether it came from the cache. The order is returned as commit hashes.
func (r *Runner) OrderWithCacheInfo(ctx context.Context, sess *session.Session, logHash string, opts Options) ([]string, bool, error) {
	cacheKey := r.Keyer.OrderKey(logHash, opts.OrderKeyOpts())
	hooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var order []string
			if err := json.Unmarshal(data, &order); err == nil && len(order) == sess.Graph().NodeCount() {
				hooks.OnCacheHit(ctx, "order")
				return order, true, nil
			}
		} else if err != nil {
			r.Logger.Debug("cache read failed", "key", cacheKey, "error", err)
		}
	}
	hooks.OnCacheMiss(ctx, "order")

	g := sess.Graph()
	observability.Pipeline().OnOrderStart(ctx, "focus", g.NodeCount())
	start := time.Now()
	nodes, err := sess.Focus(ctx, opts.Focus, opts.OrderingOptions())
	observability.Pipeline().OnOrderComplete(ctx, "focus", time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	order := make([]string, len(nodes))
	for i, n := range nodes {
		order[i] = g.Hash(n)
	}

	if data, err := json.Marshal(order); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLOrder)); err != nil {
			r.Logger.Debug("cache write failed", "key", cacheKey, "error", err)
		} else {
			hooks.OnCacheSet(ctx, "order", len(data))
		}
	}
	return order, false, nil
}

// Order is a convenience wrapper that calls OrderWithCacheInfo and discards the cache hit info.
func (r *Runner) Order(ctx context.Context, sess *session.Session, logHash string, opts Options) ([]string, error) {
	order, _, err := r.OrderWithCacheInfo(ctx, sess, logHash, opts)
	return order, err
}

// RenderWithCacheInfo generates artifacts for the visible rows of sess and
// reports whether every format came from the cache. With opts.Collapse the
// session's view folds all fragments first.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, sess *session.Session, logHash string, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(logHash, opts.ArtifactKeyOpts(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}
	hooks.OnCacheMiss(ctx, "artifact")

	if opts.Collapse && sess.Mode() == session.ViewCollapsed {
		if _, err := sess.PerformAction(ctx, view.Action{Kind: view.ActionCollapseAll}); err != nil {
			return nil, false, err
		}
	}
	rows, err := sess.Rows(0, 0)
	if err != nil {
		return nil, false, err
	}
	rendered, err := RenderRows(ctx, rows, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(logHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, sess *session.Session, logHash string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, sess, logHash, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 && r.TTL < def {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
