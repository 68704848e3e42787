package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/pkg/ordering"
	"github.com/matzehuels/logtower/pkg/pipeline"
	"github.com/matzehuels/logtower/pkg/session"
)

// loadFlags select which history is loaded.
type loadFlags struct {
	revisions string
	paths     string
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int("max-count", 0, "load at most this many commits (0 = all)")
	cmd.Flags().StringVar(&f.revisions, "rev", "", "revisions to load, comma-separated (default: all refs)")
	cmd.Flags().StringVar(&f.paths, "path", "", "only commits touching these paths, comma-separated")
}

func (f *loadFlags) apply(opts *pipeline.Options) {
	opts.Revisions = parseList(f.revisions)
	opts.Paths = parseList(f.paths)
}

// viewFlags select the view the rows are read from.
type viewFlags struct {
	branches string
	filter   string
	priority string
	collapse bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().String("view", "collapsed", "view mode: collapsed, filter")
	cmd.Flags().Int("min-fragment", 3, "shortest linear run that folds into one edge")
	cmd.Flags().StringVarP(&f.branches, "branches", "b", "", "show only these branches, comma-separated (default: all)")
	cmd.Flags().StringVar(&f.filter, "filter", "", "show only commits whose hash starts with this prefix, or hide them with a leading ! (filter view)")
	cmd.Flags().StringVar(&f.priority, "priority", "", "branches that claim shared history first, comma-separated")
	cmd.Flags().BoolVar(&f.collapse, "collapse-all", false, "fold every linear fragment (collapsed view)")
}

// apply copies the flags into opts. A --filter without an explicit --view
// switches to the filter view.
func (f *viewFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	opts.Branches = parseList(f.branches)
	opts.Filter = f.filter
	opts.Priority = parseList(f.priority)
	opts.Collapse = f.collapse
	if f.filter != "" && !cmd.Flags().Changed("view") {
		opts.View = string(session.ViewFilter)
	}
}

// registerFocusFlags adds the focus ordering thresholds.
func registerFocusFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-lookback", ordering.DefaultMaxLookback, "commits scanned back for an adjacent insertion point (-1 for none)")
	cmd.Flags().Int("max-layout-jump", ordering.DefaultMaxLayoutJump, "largest layout-index distance accepted for adjacency (-1 splits at every jump)")
}
