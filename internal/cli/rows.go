package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/pkg/pipeline"
	"github.com/matzehuels/logtower/pkg/session"
	"github.com/matzehuels/logtower/pkg/view"
)

// rowsCommand creates the rows command.
func (c *CLI) rowsCommand() *cobra.Command {
	var (
		load    loadFlags
		vf      viewFlags
		offset  int
		limit   int
		asJSON  bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "rows [repo|log-file]",
		Short: "Print the visible rows of a commit graph",
		Long: `Print the rows a log viewer shows for a repository or commit log file.

The collapsed view folds linear runs of history into single edges; the
filter view keeps only commits matching a hash prefix and joins the rest
with dotted edges. Both views can be limited to a set of branches.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := baseOptions(sourceArg(args))
			load.apply(&opts)
			vf.apply(cmd, &opts)
			opts.Refresh = refresh
			return c.runRows(cmd.Context(), opts, offset, limit, asJSON)
		},
	}

	load.register(cmd)
	vf.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "first row to print")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "rows to print (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runRows(ctx context.Context, opts pipeline.Options, offset, limit int, asJSON bool) error {
	result, err := c.open(ctx, opts)
	if err != nil {
		return err
	}
	sess := result.Session

	if opts.Collapse && sess.Mode() == session.ViewCollapsed {
		if _, err := sess.PerformAction(ctx, view.Action{Kind: view.ActionCollapseAll}); err != nil {
			return err
		}
	}

	rows, err := sess.Rows(offset, limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Fprintln(c.out, rowsTable(rows, -1).Render())
	printStats(c.out, result.Stats.Commits, sess.Count(), false)
	if end := offset + len(rows); end < sess.Count() {
		printDetail(c.out, "rows %d-%d of %d, use --offset %d for more", offset, end-1, sess.Count(), end)
	}
	return nil
}

// open loads and builds a session for opts through the pipeline runner,
// showing a spinner while git runs.
func (c *CLI) open(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	runner, err := c.newRunner()
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, c.errOut, fmt.Sprintf("Loading %s...", opts.Source))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil && !spinner.Cancelled() {
		spinner.StopWithError("Loading failed")
		return nil, err
	}
	spinner.Stop()
	return result, err
}
