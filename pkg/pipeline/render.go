package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/render"
	"github.com/matzehuels/logtower/pkg/render/dot"
)

// RenderRows generates every format in opts.Formats from rows.
// The DOT source is built once; SVG is rendered once and reused for PDF and
// PNG conversion.
func RenderRows(ctx context.Context, rows []graph.Row, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	src := dot.ToDOT(rows, dot.Options{Detailed: opts.Detailed})

	var svg []byte
	needSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		out, err := dot.RenderSVG(ctx, src)
		if err != nil {
			return nil, err
		}
		svg = out
		return svg, nil
	}

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatDOT:
			data = []byte(src)
		case FormatJSON:
			data, err = json.MarshalIndent(rows, "", "  ")
		case FormatSVG:
			data, err = needSVG()
		case FormatPDF:
			if data, err = needSVG(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		case FormatPNG:
			if data, err = needSVG(); err == nil {
				data, err = render.ToPNG(ctx, data, DefaultPNGScale)
			}
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
