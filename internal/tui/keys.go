package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"packsync/internal/synctree"
)

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Collapse  key.Binding
	Expand    key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Filters   []filterKey
	Refetch   key.Binding
	Rebuild   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

type filterKey struct {
	binding key.Binding
	change  synctree.ChangeType
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Collapse:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Expand:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "x", "enter"), key.WithHelp("space", "check")),
		ToggleAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "check tab")),
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Filters: []filterKey{
			{key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "modified")), synctree.ChangeModified},
			{key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "repo-only")), synctree.ChangeRepoOnly},
			{key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "local-only")), synctree.ChangeLocalOnly},
			{key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "unchanged")), synctree.ChangeUnchanged},
		},
		Refetch: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refetch remote")),
		Rebuild: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rebuild")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.NextTab, k.Refetch, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	filters := make([]key.Binding, len(k.Filters))
	for i, f := range k.Filters {
		filters[i] = f.binding
	}
	return [][]key.Binding{
		{k.Up, k.Down, k.Collapse, k.Expand},
		{k.Toggle, k.ToggleAll, k.NextTab, k.PrevTab},
		filters,
		{k.Refetch, k.Rebuild, k.Help, k.Quit},
	}
}
