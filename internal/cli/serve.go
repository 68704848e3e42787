package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/internal/config"
	"github.com/matzehuels/logtower/pkg/api"
	"github.com/matzehuels/logtower/pkg/pipeline"
	"github.com/matzehuels/logtower/pkg/session"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var load loadFlags

	cmd := &cobra.Command{
		Use:   "serve [repo|log-file]",
		Short: "Serve the commit graph over HTTP",
		Long: `Load the history once and serve it over HTTP.

Clients open sessions (POST /sessions), page through rows, change the
branch selection or filter, click fragments open and closed, ask which
branches contain a commit and request focus orders. Sessions expire after
--session-ttl without use.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := baseOptions(sourceArg(args))
			load.apply(&opts)
			return c.runServe(cmd.Context(), opts)
		},
	}

	load.register(cmd)
	registerFocusFlags(cmd)
	cmd.Flags().String("view", "collapsed", "default view mode for new sessions: collapsed, filter")
	cmd.Flags().Int("min-fragment", 3, "shortest linear run that folds into one edge")
	cmd.Flags().String("addr", config.DefaultServerAddr, "listen address")
	cmd.Flags().Duration("session-ttl", session.DefaultTTL, "idle time after which a session expires")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	if err := opts.ValidateForLoad(); err != nil {
		return err
	}

	prog := newProgress(logger)
	l, err := pipeline.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	prog.done("Loaded history", "source", opts.Source, "commits", len(l.Commits), "refs", len(l.Refs))

	runner, err := c.newRunner()
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store := session.NewMemoryStore(config.GetDuration(config.KeyServerSessionTTL))
	defer store.Close()

	srv, err := api.New(api.Config{
		Log:      l,
		Defaults: opts,
		Runner:   runner,
		Store:    store,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	addr := config.GetString(config.KeyServerAddr)
	printInfo(c.out, "Serving %s on %s", opts.Source, StyleValue.Render("http://"+addr))
	return srv.ListenAndServe(ctx, addr)
}
