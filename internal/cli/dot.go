package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/pkg/pipeline"
)

// dotCommand creates the dot command for exporting the visible rows.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		load       loadFlags
		vf         viewFlags
		formatsStr string
		output     string
		detailed   bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "dot [repo|log-file]",
		Short: "Export the visible rows as DOT, SVG, PDF, PNG or JSON",
		Long: `Export the rows of the collapsed or filter view as a graph.

Collapsed fragments are drawn as dashed edges, filtered-out stretches as
dotted edges and parents outside the loaded history as grey placeholders.
SVG is rendered with Graphviz; PDF and PNG are converted from the SVG with
rsvg-convert.

Results are cached by the content of the history and the view options.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := baseOptions(sourceArg(args))
			load.apply(&opts)
			vf.apply(cmd, &opts)
			opts.Formats = parseFormats(formatsStr)
			opts.Detailed = detailed
			opts.Refresh = refresh
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runDot(cmd.Context(), opts, output)
		},
	}

	load.register(cmd)
	vf.register(cmd)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with author and subject")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached renders")

	return cmd
}

func (c *CLI) runDot(ctx context.Context, opts pipeline.Options, output string) error {
	prog := newProgress(loggerFromContext(ctx))
	result, err := c.open(ctx, opts)
	if err != nil {
		return err
	}

	if output == "-" {
		if len(opts.Formats) != 1 {
			return fmt.Errorf("writing to stdout needs exactly one format, got %d", len(opts.Formats))
		}
		_, err := c.out.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, basePath(output, opts.Source))
	if err != nil {
		return err
	}
	prog.done("Exported rows", "formats", strings.Join(opts.Formats, ","), "cached", result.CacheInfo.RenderHit)

	printSuccess(c.out, "Exported %d rows", result.Session.Count())
	for _, p := range paths {
		printFile(c.out, p)
	}
	printStats(c.out, result.Stats.Commits, result.Session.Count(), result.CacheInfo.RenderHit)
	return nil
}

// basePath derives the output path without extension. An empty output
// names the file after the source with a ".rows" suffix, so a JSON export
// never overwrites a JSON log; a repository directory becomes
// <dir>/<dirname>.rows. A known format extension on output is stripped.
func basePath(output, source string) string {
	if output == "" {
		if info, err := os.Stat(source); err == nil && info.IsDir() {
			abs, err := filepath.Abs(source)
			if err != nil {
				abs = source
			}
			return filepath.Join(source, filepath.Base(abs)+".rows")
		}
		return strings.TrimSuffix(source, filepath.Ext(source)) + ".rows"
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes each format to base.<format> and returns the paths
// in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range slices.Compact(slices.Clone(formats)) {
		data, ok := artifacts[format]
		if !ok {
			return paths, fmt.Errorf("no %s output produced", format)
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
