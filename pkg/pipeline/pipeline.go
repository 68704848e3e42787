// Package pipeline provides the load → build → order → render pipeline for
// logtower.
//
// This package implements the steps every entry point needs, so the CLI,
// the HTTP API and the terminal browser behave the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read commits and refs from a log file or a git repository
//  2. Build: Open a session (graph, layout, branch selection, view)
//  3. Order: Optionally compute the focus-on-branch order for one head
//  4. Render: Optionally export the visible rows (DOT, SVG, PDF, PNG, JSON)
//
// Orders and rendered artifacts are cached by the content hash of the log,
// so repeated runs over an unchanged history skip the work.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  ".",
//	    Focus:   "main",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/logtower/pkg/cache"
	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/ordering"
	"github.com/matzehuels/logtower/pkg/session"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Browser
// =============================================================================

const (
	// DefaultView is the default view mode.
	DefaultView = session.ViewCollapsed

	// DefaultPNGScale is the scale factor for PNG export.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Source    string   `json:"source"`
	MaxCount  int      `json:"max_count,omitempty"`
	Revisions []string `json:"revisions,omitempty"`
	Paths     []string `json:"paths,omitempty"`

	// Session options
	View        string   `json:"view,omitempty"`
	MinFragment int      `json:"min_fragment,omitempty"`
	Branches    []string `json:"branches,omitempty"`
	Filter      string   `json:"filter,omitempty"`
	Priority    []string `json:"priority,omitempty"` // branches the layout favors, in order

	// Order options. Thresholds of 0 use the defaults, -1 means none.
	Focus         string `json:"focus,omitempty"`
	MaxLookback   int    `json:"max_lookback,omitempty"`
	MaxLayoutJump int    `json:"max_layout_jump,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Collapse bool     `json:"collapse,omitempty"` // fold every linear fragment before rendering

	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger    *log.Logger `json:"-"`
	GitBinary string      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Log is the loaded commit log.
	Log *graph.Log

	// LogHash is the content hash of the log, used for cache keys.
	LogHash string

	// Session owns the graph and the view the rows were read from.
	Session *session.Session

	// Order lists commit hashes in focus order. Nil without a focus head.
	Order []string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Commits    int
	Edges      int
	Heads      int
	Rows       int
	LoadTime   time.Duration
	BuildTime  time.Duration
	OrderTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	OrderHit  bool // Whether the focus order came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForSession(); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		return fmt.Errorf("source is required")
	}
	if o.MaxCount < 0 {
		return fmt.Errorf("max_count must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForSession checks and defaults the view options.
func (o *Options) ValidateForSession() error {
	if o.View == "" {
		o.View = string(DefaultView)
	}
	if _, err := session.ParseViewMode(o.View); err != nil {
		return err
	}
	if o.Filter != "" && o.View != string(session.ViewFilter) {
		return fmt.Errorf("filter requires view %q", session.ViewFilter)
	}
	if o.MinFragment < 0 {
		return fmt.Errorf("min_fragment must not be negative")
	}
	if o.MaxLookback < ordering.None || o.MaxLayoutJump < ordering.None {
		return fmt.Errorf("max_lookback and max_layout_jump must be -1 (none), 0 (default) or positive")
	}
	return nil
}

// SessionOptions returns the options for opening a session.
func (o *Options) SessionOptions() session.Options {
	mode, _ := session.ParseViewMode(o.View)
	return session.Options{
		View:        mode,
		MinFragment: o.MinFragment,
		Filter:      o.Filter,
		Branches:    o.Branches,
		Priority:    o.Priority,
	}
}

// OrderingOptions returns the focus sorter thresholds.
func (o *Options) OrderingOptions() ordering.Options {
	return ordering.Options{MaxLookback: o.MaxLookback, MaxLayoutJump: o.MaxLayoutJump}
}

// OrderKeyOpts returns cache key options for the focus order.
func (o *Options) OrderKeyOpts() cache.OrderKeyOpts {
	return cache.OrderKeyOpts{
		Focus:         o.Focus,
		MaxLookback:   o.MaxLookback,
		MaxLayoutJump: o.MaxLayoutJump,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		View:     o.View,
		Branches: o.Branches,
		Filter:   o.Filter,
		Priority: o.Priority,
		Collapse: o.Collapse,
		Detailed: o.Detailed,
	}
}
