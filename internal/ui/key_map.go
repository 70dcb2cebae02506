package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds every binding the TUI reacts to. The list view adds its own navigation and filter
// bindings through bubbles/list.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	stop    key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "search")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "cancel")),
		stop:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "stop after current track")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "next batch")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// viewKeys adapts keyMap to [help.KeyMap] for a single view.
type viewKeys struct {
	keyMap
	view ViewState
}

func (k keyMap) forView(v ViewState) help.KeyMap {
	return viewKeys{keyMap: k, view: v}
}

func (k viewKeys) ShortHelp() []key.Binding {
	switch k.view {
	case PlaylistListView:
		return []key.Binding{k.enter, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no, k.quit}
	case SearchView:
		return []key.Binding{k.stop}
	default:
		return []key.Binding{k.restart, k.back, k.quit}
	}
}

func (k viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
