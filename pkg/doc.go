// Package pkg provides the core libraries for Logtower commit graph browsing.
//
// # Overview
//
// Logtower turns a version-control history into the rows of a log table:
// which commits are visible, how their edges connect, which linear runs are
// folded into a single edge, and in what order branches are laid out. The
// pkg directory is organized into four main areas:
//
//  1. [dag], [branches], [view], [ordering] - Domain logic (graph, branch
//     queries, row projection, focus ordering)
//  2. [graph], [source] - Log serialization and loading (JSON, TOML, git)
//  3. [session], [pipeline], [cache] - Orchestration (load, open, order,
//     render, with caching)
//  4. [api], [render] - Outer surfaces (HTTP sessions, DOT/SVG/PDF/PNG)
//
// # Architecture
//
// The typical data flow through Logtower:
//
//	git log / JSON / TOML log file
//	         ↓
//	    [source] package (load a [graph.Log])
//	         ↓
//	    [dag] package (PermanentGraph + Layout)
//	         ↓
//	    [branches] + [view] packages (visible rows, folds, filters)
//	         ↓
//	    [session] package (one user's state over the graph)
//	         ↓
//	    rows / focus order / DOT, SVG, PDF, PNG
//
// # Quick Start
//
// Load a repository and print its first rows:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/logtower/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Source: ".",
//	    View:   "collapsed",
//	})
//	rows, err := result.Session.Rows(0, 20)
//
// # Main Packages
//
// ## Domain Logic
//
// [dag] - The immutable [dag.PermanentGraph] built from newest-first commit
// records, the reusable [dag.Flags] bit vector, the iterative [dag.Walk]
// traversal and the per-head [dag.Layout].
//
// [branches] - Which commits belong to the selected branches, and which
// branch heads contain a given commit.
//
// [view] - Projections of the graph onto dense row indexes. FilterView
// hides commits that fail a predicate; CollapsedView folds linear fragments
// into single edges and unfolds them on demand.
//
// [ordering] - Focus ordering: place a chosen branch so that its commits and
// the branches merged into it stay close together.
//
// ## Serialization and Sources
//
// [graph] - Log files (JSON and TOML) and the row and link types returned to
// callers.
//
// [source] - Loads logs from git repositories (via the git binary) or from
// log files on disk.
//
// ## Orchestration
//
// [session] - A [session.Session] holds one user's branch selection, filter
// and collapse state. A [session.Handle] serializes access to a session, and
// stores keep sessions in memory (API) or on disk (browser state).
//
// [pipeline] - The load → open → order → render pipeline shared by the CLI
// and the API, with order and artifact caching.
//
// [cache] - Cache backends: file (CLI), Redis (shared) and null.
//
// ## Outer Surfaces
//
// [api] - HTTP server exposing sessions, rows, folds, containment and focus.
//
// [render] - SVG to PDF/PNG conversion; [render/dot] writes rows as Graphviz.
//
// ## Support
//
// [errors] - Coded errors shared by every layer and mapped to HTTP status by
// the API. [observability] - Hooks around pipeline stages. [buildinfo] -
// Version information set at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/view/...               # Specific package
//	go test -run Example                 # Examples only
//
// [dag]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/dag
// [branches]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/branches
// [view]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/view
// [ordering]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/ordering
// [graph]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/graph
// [source]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/source
// [session]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/cache
// [api]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/api
// [render]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/render
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/render/dot
// [errors]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/logtower/pkg/buildinfo
package pkg
