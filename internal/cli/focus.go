package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/pipeline"
)

// focusCommand creates the focus command.
func (c *CLI) focusCommand() *cobra.Command {
	var (
		load    loadFlags
		limit   int
		asJSON  bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "focus <branch> [repo|log-file]",
		Short: "Order history so a branch reads as a contiguous block",
		Long: `Order every loaded commit so that the branch and each branch merged into it
appear as contiguous blocks, newest first, with the focused branch first.

Orders are cached by the content of the history, so asking again for an
unchanged repository is instant. Use --refresh to recompute.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := baseOptions(sourceArg(args[1:]))
			load.apply(&opts)
			opts.Focus = args[0]
			opts.Refresh = refresh
			return c.runFocus(cmd.Context(), opts, limit, asJSON)
		},
	}

	load.register(cmd)
	registerFocusFlags(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "commits to print (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the order as a JSON array of hashes")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached order")

	return cmd
}

func (c *CLI) runFocus(ctx context.Context, opts pipeline.Options, limit int, asJSON bool) error {
	prog := newProgress(loggerFromContext(ctx))
	result, err := c.open(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("Ordered history", "focus", opts.Focus, "cached", result.CacheInfo.OrderHit)

	order := result.Order
	if limit > 0 && limit < len(order) {
		order = order[:limit]
	}
	if asJSON {
		return json.NewEncoder(c.out).Encode(order)
	}

	byHash := make(map[string]graph.Commit, len(result.Log.Commits))
	for _, commit := range result.Log.Commits {
		byHash[commit.Hash] = commit
	}
	for _, h := range order {
		fmt.Fprintln(c.out, StyleHash.Render(graph.ShortHash(h))+" "+byHash[h].Subject)
	}
	printStats(c.out, result.Stats.Commits, len(order), result.CacheInfo.OrderHit)
	return nil
}
