package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/pkg/graph"
)

// containingCommand creates the containing command.
func (c *CLI) containingCommand() *cobra.Command {
	var (
		load   loadFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "containing <commit> [repo|log-file]",
		Short: "List the branches that contain a commit",
		Long: `List every branch whose history contains the commit.

The commit may be a branch or tag name, a full hash or a unique hash prefix.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := baseOptions(sourceArg(args[1:]))
			load.apply(&opts)

			result, err := c.open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			names, err := result.Session.Containing(args[0])
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("resolved containing branches", "commit", args[0], "branches", len(names))

			if asJSON {
				return json.NewEncoder(c.out).Encode(map[string]any{"commit": args[0], "branches": names})
			}
			if len(names) == 0 {
				printWarning(c.out, "No loaded branch contains %s", graph.ShortHash(args[0]))
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(c.out, StyleRef.Render(name))
			}
			return nil
		},
	}

	load.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}
