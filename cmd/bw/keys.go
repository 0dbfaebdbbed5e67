package main

import "github.com/charmbracelet/bubbles/key"

// --- Key bindings ---

type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Refresh     key.Binding
	Back        key.Binding
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Follow      key.Binding
	AutoExpand  key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	HalfUp      key.Binding
	HalfDown    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Toggle:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open/close logs")),
	Follow:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow step")),
	AutoExpand:  key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "auto-expand")),
	ExpandAll:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand all")),
	CollapseAll: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "collapse all")),
	HalfUp:      key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "half page up")),
	HalfDown:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "half page down")),
	PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Follow, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Follow, k.AutoExpand, k.ExpandAll},
		{k.CollapseAll, k.HalfUp, k.HalfDown},
		{k.Refresh, k.Back, k.Quit},
	}
}

// contextHelp returns help text appropriate for the current view. Kept
// short enough to share the status bar with the state indicators at 80
// columns; ? lists the rest.
func contextHelp(v viewID) string {
	switch v {
	case viewBuilds:
		return "j/k: select | enter: open | r: refresh | ?: help | q: quit"
	case viewBuild:
		return "enter: logs | f: follow | e/c: expand/collapse | esc: back"
	default:
		return "?: help | q: quit"
	}
}
