package cli

import "github.com/charmbracelet/bubbles/key"

// browseKeyMap defines the key bindings of the row browser.
type browseKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	Fold        key.Binding
	Unfold      key.Binding
	CollapseAll key.Binding
	ExpandAll   key.Binding
	Filter      key.Binding
	Escape      key.Binding
	Quit        key.Binding
}

func defaultBrowseKeyMap() browseKeyMap {
	return browseKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Fold: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("⏎", "fold"),
		),
		Unfold: key.NewBinding(
			key.WithKeys("o", "tab"),
			key.WithHelp("o", "unfold below"),
		),
		CollapseAll: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "collapse all"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expand all"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// shortHelp lists the bindings shown in the footer for a view mode.
func (k browseKeyMap) shortHelp(filterView bool) []key.Binding {
	if filterView {
		return []key.Binding{k.Up, k.Down, k.Filter, k.Quit}
	}
	return []key.Binding{k.Up, k.Down, k.Fold, k.Unfold, k.CollapseAll, k.ExpandAll, k.Quit}
}
