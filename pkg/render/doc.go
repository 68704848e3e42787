// Package render turns visible commit rows into images.
//
// # Overview
//
// The [dot] subpackage writes the rows of a view as Graphviz DOT and renders
// them to SVG in process. This package converts that SVG to other formats
// using the external rsvg-convert tool (from librsvg):
//
//	svg, err := dot.RenderSVG(ctx, dot.ToDOT(rows, dot.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// Layout is left to Graphviz; the engine only decides which rows and edges
// exist.
//
// [dot]: github.com/matzehuels/logtower/pkg/render/dot
package render
