package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/logtower/pkg/graph"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the subject, author, date and row number to labels.
	// When false, only the short hash and refs are shown.
	Detailed bool
}

// ToDOT converts rows to Graphviz DOT source. Rows are emitted in order
// with edges toward older rows, so rankdir=TB keeps the newest commit on top.
func ToDOT(rows []graph.Row, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=monospace, fontsize=12];\n")
	buf.WriteString("  ranksep=0.3;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, r := range rows {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(r, opts.Detailed))}
		if len(r.Refs) > 0 {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", r.Hash, strings.Join(attrs, ", "))
	}

	missing := make(map[string]bool)
	buf.WriteString("\n")
	for _, r := range rows {
		for _, l := range r.Down {
			if l.Kind == "not-loaded" && !missing[l.Hash] {
				missing[l.Hash] = true
				fmt.Fprintf(&buf, "  %q [label=%q, shape=plaintext, style=\"\", fontcolor=grey];\n", l.Hash, graph.ShortHash(l.Hash))
			}
			fmt.Fprintf(&buf, "  %q -> %q%s;\n", r.Hash, l.Hash, edgeAttrs(l.Kind))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(r graph.Row, detailed bool) string {
	lines := []string{graph.ShortHash(r.Hash)}
	if len(r.Refs) > 0 {
		lines[0] += " (" + strings.Join(r.Refs, ", ") + ")"
	}
	if !detailed {
		return strings.Join(lines, "\n")
	}
	if r.Subject != "" {
		lines = append(lines, r.Subject)
	}
	meta := fmt.Sprintf("row: %d", r.Row)
	if r.Author != "" {
		meta += "  " + r.Author
	}
	if r.Time != 0 {
		meta += "  " + time.Unix(r.Time, 0).UTC().Format("2006-01-02")
	}
	return strings.Join(append(lines, meta), "\n")
}

func edgeAttrs(kind string) string {
	switch kind {
	case "dotted":
		return " [style=dotted]"
	case "collapsed":
		return ` [style=dashed, label="…"]`
	case "not-loaded":
		return " [style=dashed, color=grey]"
	}
	return ""
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// render.ToPDF or render.ToPNG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
