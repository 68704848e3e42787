package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/logtower/internal/config"
	"github.com/matzehuels/logtower/pkg/buildinfo"
	"github.com/matzehuels/logtower/pkg/cache"
	"github.com/matzehuels/logtower/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "logtower"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// flagKeys maps flag names to the config keys they override. Only flags the
// user actually set are applied, so config files keep their say otherwise.
var flagKeys = map[string]string{
	"no-cache":        config.KeyCacheDisabled,
	"cache-dir":       config.KeyCacheDir,
	"redis":           config.KeyRedisAddr,
	"git":             config.KeyGitBinary,
	"max-count":       config.KeyGitMaxCount,
	"view":            config.KeyViewMode,
	"min-fragment":    config.KeyViewMinFragment,
	"max-lookback":    config.KeyFocusMaxLookback,
	"max-layout-jump": config.KeyFocusMaxLayoutJump,
	"addr":            config.KeyServerAddr,
	"session-ttl":     config.KeyServerSessionTTL,
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	workDir    string
	out        io.Writer
	errOut     io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		errOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output (tables, hashes, file lists).
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Logtower lays out commit history for log viewers",
		Long: `Logtower builds the commit graph of a git repository or a commit log file,
folds linear history, filters by branch and hash, answers which branches
contain a commit, and orders history so one branch reads as a contiguous block.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "project config file (default: nearest .logtower.toml)")
	root.PersistentFlags().Bool("no-cache", false, "disable the order and render cache")
	root.PersistentFlags().String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/logtower)")
	root.PersistentFlags().String("redis", "", "cache in Redis at host:port instead of on disk")
	root.PersistentFlags().String("git", "git", "git executable")

	root.AddCommand(c.rowsCommand())
	root.AddCommand(c.containingCommand())
	root.AddCommand(c.focusCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration, applies flag overrides and attaches the logger
// to the command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	opts := []config.Option{}
	if c.workDir != "" {
		opts = append(opts, config.WithWorkingDir(c.workDir))
	}
	if c.configPath != "" {
		opts = append(opts, config.WithProjectConfig(c.configPath))
	}
	if err := config.Initialize(opts...); err != nil {
		return err
	}
	if err := config.ApplyOverrides(changedOverrides(cmd)); err != nil {
		return err
	}
	for _, f := range config.ConfigFiles() {
		c.Logger.Debug("loaded config", "file", f)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// changedOverrides collects the config overrides of every flag set on cmd.
func changedOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})
	return overrides
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	cc, err := newCache()
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, newKeyer(), c.Logger)
	r.TTL = config.GetDuration(config.KeyCacheTTL)
	return r, nil
}

// newKeyer scopes cache keys by the configured namespace, so several
// checkouts or users can share one Redis backend without reading each
// other's entries. Nil selects the default keyer.
func newKeyer() cache.Keyer {
	ns := config.GetString(config.KeyCacheNamespace)
	if ns == "" {
		return nil
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), ns+":")
}

// newCache picks the cache backend: none when disabled, Redis when an
// address is configured, the file cache otherwise.
func newCache() (cache.Cache, error) {
	if config.GetBool(config.KeyCacheDisabled) {
		return cache.NewNullCache(), nil
	}
	if addr := config.GetString(config.KeyRedisAddr); addr != "" {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:      addr,
			Password:  config.GetString(config.KeyRedisPassword),
			DB:        config.GetInt(config.KeyRedisDB),
			KeyPrefix: appName + ":",
		}), nil
	}
	dir, err := fileCacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// baseOptions returns pipeline options for source seeded from configuration.
func baseOptions(source string) pipeline.Options {
	return pipeline.Options{
		Source:        source,
		MaxCount:      config.GetInt(config.KeyGitMaxCount),
		View:          config.GetString(config.KeyViewMode),
		MinFragment:   config.GetInt(config.KeyViewMinFragment),
		MaxLookback:   config.GetInt(config.KeyFocusMaxLookback),
		MaxLayoutJump: config.GetInt(config.KeyFocusMaxLayoutJump),
		GitBinary:     config.GetString(config.KeyGitBinary),
	}
}

// sourceArg returns the source named on the command line, or the working
// directory.
func sourceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/logtower/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// stateDir returns where the browser remembers selections
// (~/.local/state/logtower/).
func stateDir() (string, error) {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// parseList splits a comma-separated flag value. Empty input yields nil.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
