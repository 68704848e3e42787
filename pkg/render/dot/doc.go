// Package dot renders visible commit rows as Graphviz diagrams.
//
// # Usage
//
// Convert rows to DOT, then render to SVG:
//
//	rows, _ := sess.Rows(0, 0)
//	src := dot.ToDOT(rows, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// # Edges
//
// Each row link becomes an edge toward the older commit. Usual edges are
// solid, edges through filtered commits are dotted, collapsed fragments are
// dashed and labelled, and parents outside the loaded log point at a small
// grey placeholder node.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion lives in package render.
package dot
