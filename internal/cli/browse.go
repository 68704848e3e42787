package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/pkg/graph"
	"github.com/matzehuels/logtower/pkg/pipeline"
	"github.com/matzehuels/logtower/pkg/session"
	"github.com/matzehuels/logtower/pkg/view"
)

const (
	minBrowseHeight = 5
	browseChrome    = 8 // title, table borders and header, status, help
)

// browseCommand creates the interactive row browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		load    loadFlags
		vf      viewFlags
		noState bool
	)

	cmd := &cobra.Command{
		Use:   "browse [repo|log-file]",
		Short: "Browse the commit graph interactively",
		Long: `Page through the rows of a commit graph in the terminal.

In the collapsed view, ⏎ folds the linear fragment under the cursor and o
unfolds the collapsed edge below it; c and e fold or unfold everything. In
the filter view, / edits the hash prefix.

The view, branch selection and filter are remembered per repository and
restored next time unless view flags are given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := baseOptions(sourceArg(args))
			load.apply(&opts)
			vf.apply(cmd, &opts)
			restore := !noState && !viewFlagsChanged(cmd)
			return c.runBrowse(cmd.Context(), opts, restore, !noState)
		},
	}

	load.register(cmd)
	vf.register(cmd)
	cmd.Flags().BoolVar(&noState, "no-state", false, "neither restore nor save the view selection")

	return cmd
}

func viewFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"view", "branches", "filter", "priority"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (c *CLI) runBrowse(ctx context.Context, opts pipeline.Options, restore, save bool) error {
	logger := loggerFromContext(ctx)
	stateKey, err := filepath.Abs(opts.Source)
	if err != nil {
		stateKey = opts.Source
	}

	var store *session.FileStore
	if restore || save {
		dir, err := stateDir()
		if err == nil {
			store, err = session.NewFileStore(dir)
		}
		if err != nil {
			logger.Warn("browser state disabled", "error", err)
			store = nil
		}
	}
	if store != nil && restore {
		if st, err := store.Get(ctx, stateKey); err != nil {
			logger.Debug("read browser state", "error", err)
		} else if st != nil {
			opts.View = string(st.View)
			opts.Branches = st.Branches
			opts.Filter = st.Filter
			opts.Priority = st.Priority
			logger.Debug("restored browser state", "view", st.View, "branches", len(st.Branches))
		}
	}

	result, err := c.open(ctx, opts)
	if err != nil {
		return err
	}
	h := session.NewHandle(result.Session)
	defer h.Close()

	m := newBrowseModel(ctx, h, opts.Source)
	if err := m.reload(); err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return err
	}

	if store != nil && save {
		err := h.Do(ctx, func(s *session.Session) error {
			return store.Set(ctx, session.Capture(stateKey, s, 0))
		})
		if err != nil {
			logger.Warn("save browser state", "error", err)
		}
	}
	return nil
}

// =============================================================================
// browseModel - bubbletea model over a session handle
// =============================================================================

// browseModel shows a window of rows around the cursor. Every read and
// action goes through the session handle.
type browseModel struct {
	ctx    context.Context
	h      *session.Handle
	keys   browseKeyMap
	source string

	mode   session.ViewMode
	prefix string
	rows   []graph.Row
	count  int
	cursor int // absolute row
	offset int // first row in the window
	height int

	editing bool
	input   string
	status  string
	err     error
}

func newBrowseModel(ctx context.Context, h *session.Handle, source string) *browseModel {
	return &browseModel{
		ctx:    ctx,
		h:      h,
		keys:   defaultBrowseKeyMap(),
		source: source,
		height: 20,
	}
}

func (m *browseModel) Init() tea.Cmd { return nil }

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-browseChrome, minBrowseHeight)
		m.err = m.reload()
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateFilterInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *browseModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.err = "", nil
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= m.height
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += m.height
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		m.cursor = m.count - 1
	case key.Matches(msg, m.keys.Fold):
		m.perform(view.Action{Kind: view.ActionClickNode, Row: m.cursor})
	case key.Matches(msg, m.keys.Unfold):
		if target, ok := m.collapsedBelow(); ok {
			m.perform(view.Action{Kind: view.ActionClickEdge, Row: m.cursor, Target: target})
		} else {
			m.status = "no collapsed edge below this row"
		}
	case key.Matches(msg, m.keys.CollapseAll):
		m.perform(view.Action{Kind: view.ActionCollapseAll})
	case key.Matches(msg, m.keys.ExpandAll):
		m.perform(view.Action{Kind: view.ActionExpandAll})
	case key.Matches(msg, m.keys.Filter):
		if m.mode != session.ViewFilter {
			m.status = "filtering needs --view filter"
			break
		}
		m.editing, m.input = true, m.prefix
		return m, nil
	}
	if err := m.reload(); err != nil {
		m.err = err
	}
	return m, nil
}

func (m *browseModel) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
	case tea.KeyEnter:
		m.editing = false
		prefix := m.input
		m.err = m.h.Do(m.ctx, func(s *session.Session) error {
			return s.SetFilter(m.ctx, prefix)
		})
		if m.err == nil {
			m.cursor = 0
			m.err = m.reload()
		}
	case tea.KeyBackspace:
		_, size := utf8.DecodeLastRuneInString(m.input)
		m.input = m.input[:len(m.input)-size]
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

// perform runs a view action and moves the cursor to the row it returns.
func (m *browseModel) perform(a view.Action) {
	var row int
	err := m.h.Do(m.ctx, func(s *session.Session) error {
		var err error
		row, err = s.PerformAction(m.ctx, a)
		return err
	})
	if err != nil {
		m.err = err
		return
	}
	if row != view.NoRow {
		m.cursor = row
	}
}

// collapsedBelow returns the row at the far end of the first collapsed
// parent edge of the cursor row.
func (m *browseModel) collapsedBelow() (int, bool) {
	i := m.cursor - m.offset
	if i < 0 || i >= len(m.rows) {
		return 0, false
	}
	for _, l := range m.rows[i].Down {
		if l.Kind == view.EdgeCollapsed.String() && l.Row >= 0 {
			return l.Row, true
		}
	}
	return 0, false
}

// reload clamps the cursor, scrolls the window to keep it visible and
// fetches the rows in the window.
func (m *browseModel) reload() error {
	return m.h.Do(m.ctx, func(s *session.Session) error {
		m.mode = s.Mode()
		m.prefix = s.Filter()
		m.count = s.Count()

		m.cursor = min(max(m.cursor, 0), max(m.count-1, 0))
		if m.cursor < m.offset {
			m.offset = m.cursor
		}
		if m.cursor >= m.offset+m.height {
			m.offset = m.cursor - m.height + 1
		}
		m.offset = min(m.offset, max(m.count-m.height, 0))

		rows, err := s.Rows(m.offset, m.height)
		if err != nil {
			return err
		}
		m.rows = rows
		return nil
	})
}

func (m *browseModel) View() string {
	var b strings.Builder

	title := StyleTitle.Render(appName) + "  " + StyleValue.Render(m.source) +
		StyleDim.Render(fmt.Sprintf(" · %s · %d rows", m.mode, m.count))
	if m.prefix != "" {
		title += StyleDim.Render(" · filter ") + StyleHash.Render(m.prefix)
	}
	b.WriteString(title + "\n")

	if m.count == 0 {
		b.WriteString(StyleDim.Render("  no visible commits") + "\n")
	} else {
		b.WriteString(rowsTable(m.rows, m.cursor-m.offset).Render() + "\n")
	}

	switch {
	case m.editing:
		b.WriteString(StyleTitle.Render("/") + m.input + StyleDim.Render("▏") + "\n")
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError+" "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(StyleWarning.Render(m.status) + "\n")
	default:
		b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, m.count)) + "\n")
	}

	var help []string
	for _, k := range m.keys.shortHelp(m.mode == session.ViewFilter) {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(StyleDim.Render(strings.Join(help, " · ")))
	return b.String()
}
