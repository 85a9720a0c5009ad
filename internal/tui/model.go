// Package tui is the interactive tree view. The bubbletea event loop is the
// owning context of the refresh orchestrator: rebuild results arrive as
// messages and are applied inside Update.
package tui

import (
	"context"
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"packsync/internal/config"
	"packsync/internal/events"
	"packsync/internal/logging"
	"packsync/internal/refresh"
	"packsync/internal/synctree"
)

type fetchDoneMsg struct{ err error }

// ModelOptions configures the tree view.
type ModelOptions struct {
	Title string
	// StateRoot is the project directory the UI state is saved under. Empty
	// disables persistence.
	StateRoot string
	Context   context.Context
	Bus       EventBus.Bus
	Logger    *zap.Logger
}

type row struct {
	node  *synctree.Node
	depth int
}

type rowKey struct {
	path  string
	isDir bool
}

// Model is the bubbletea model of the tree view.
type Model struct {
	opts    ModelOptions
	orch    *refresh.Orchestrator
	log     *zap.Logger
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	rows     []row
	cursor   int
	dirty    bool
	seen     map[string]bool
	fetching bool
	status   string
	width    int
	height   int
}

// NewModel returns a model without an orchestrator. Wire OnApplied and
// OnNodeChanged into the orchestrator options, then call Attach.
func NewModel(opts ModelOptions) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Title == "" {
		opts.Title = "packsync"
	}
	return &Model{
		opts:    opts,
		log:     logging.OrNop(opts.Logger).Named("tui"),
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		seen:    map[string]bool{},
		status:  "loading...",
	}
}

// Attach sets the orchestrator the model drives.
func (m *Model) Attach(o *refresh.Orchestrator) { m.orch = o }

// OnApplied is the orchestrator's swap callback. Tab roots are expanded the
// first time they appear; after that the orchestrator carries expansion over.
func (m *Model) OnApplied(a refresh.Applied) {
	for _, t := range a.Tabs {
		if !m.seen[t.Root.Path()] {
			m.seen[t.Root.Path()] = true
			t.Root.SetExpanded(true)
		}
	}
	m.dirty = true
	m.status = fmt.Sprintf("tree rebuilt (v%d)", a.Version)
}

// OnNodeChanged is attached to every tab root.
func (m *Model) OnNodeChanged(_ *synctree.Node, _ synctree.Property) {
	m.dirty = true
}

func (m *Model) Init() tea.Cmd { return m.spinner.Tick }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case applyMsg:
		msg.fn()
		m.refreshRows()
		return m, nil
	case fetchDoneMsg:
		m.fetching = false
		if msg.err != nil {
			m.status = "fetch failed: " + msg.err.Error()
		} else {
			m.status = "remote listing updated"
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if m.dirty {
			m.refreshRows()
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		events.Publish(m.opts.Bus, events.EventShutdownRequested)
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}
	if m.orch == nil {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Expand):
		if n := m.current(); n != nil && n.IsDir() {
			n.SetExpanded(true)
		}
	case key.Matches(msg, m.keys.Collapse):
		m.collapse()
	case key.Matches(msg, m.keys.Toggle):
		m.toggle(m.current())
	case key.Matches(msg, m.keys.ToggleAll):
		if t := m.currentTab(); t != nil {
			m.toggle(t.Root)
		}
	case key.Matches(msg, m.keys.NextTab):
		m.selectTab(m.orch.SelectedTab() + 1)
	case key.Matches(msg, m.keys.PrevTab):
		m.selectTab(m.orch.SelectedTab() - 1)
	case key.Matches(msg, m.keys.Rebuild):
		m.orch.Rebuild()
		m.status = "rebuilding..."
	case key.Matches(msg, m.keys.Refetch):
		return m.refetch()
	default:
		for _, f := range m.keys.Filters {
			if key.Matches(msg, f.binding) {
				m.toggleFilter(f.change)
				break
			}
		}
	}
	return nil
}

func (m *Model) current() *synctree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

func (m *Model) currentTab() *synctree.Tab {
	if m.orch == nil {
		return nil
	}
	tabs := m.orch.Tabs()
	if len(tabs) == 0 {
		return nil
	}
	return &tabs[m.orch.SelectedTab()]
}

// collapse folds the current directory, or moves to the parent row when the
// cursor is on a leaf or an already collapsed directory.
func (m *Model) collapse() {
	n := m.current()
	if n == nil {
		return
	}
	if n.IsDir() && n.IsExpanded() {
		n.SetExpanded(false)
		return
	}
	depth := m.rows[m.cursor].depth
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < depth {
			m.cursor = i
			return
		}
	}
}

func (m *Model) toggle(n *synctree.Node) {
	if n == nil {
		return
	}
	if !n.CanCheck() {
		m.status = fmt.Sprintf("%s is %s and cannot be selected", n.Name(), n.ChangeType())
		return
	}
	next := synctree.Checked
	if n.CheckState() == synctree.Checked {
		next = synctree.Unchecked
	}
	n.SetCheckState(next)

	if t := m.currentTab(); t != nil {
		checked := synctree.Count(t.Root).Checked
		events.Publish(m.opts.Bus, events.EventSelectionChanged, t.Category.String(), checked)
	}
}

func (m *Model) selectTab(i int) {
	n := len(m.orch.Tabs())
	if n == 0 {
		return
	}
	i = (i%n + n) % n
	m.orch.SelectTab(i)
	m.cursor = 0
	m.rows = nil
	m.dirty = true
	m.saveState()
}

func (m *Model) toggleFilter(t synctree.ChangeType) {
	f := m.orch.Filter()
	f.Toggle(t)
	m.orch.SetFilter(f)
	m.dirty = true
	m.saveState()
}

func (m *Model) refetch() tea.Cmd {
	if m.fetching {
		return nil
	}
	m.fetching = true
	m.status = "fetching remote listing..."
	ctx, o := m.opts.Context, m.orch
	return func() tea.Msg {
		return fetchDoneMsg{err: o.Refetch(ctx)}
	}
}

func (m *Model) saveState() {
	if m.opts.StateRoot == "" {
		return
	}
	st := config.UIState{SelectedTab: m.orch.SelectedTab(), Filter: m.orch.Filter().Strings()}
	if err := st.Save(m.opts.StateRoot); err != nil {
		m.log.Warn("failed to save ui state", zap.Error(err))
	}
}

// refreshRows flattens the selected tab and keeps the cursor on the same
// node when it is still shown.
func (m *Model) refreshRows() {
	var prev *rowKey
	if n := m.current(); n != nil {
		prev = &rowKey{path: n.Path(), isDir: n.IsDir()}
	}

	m.rows = m.rows[:0]
	if t := m.currentTab(); t != nil {
		m.rows = flatten(t.Root, 0, m.rows)
	}
	m.dirty = false

	if prev != nil {
		for i, r := range m.rows {
			if r.node.Path() == prev.path && r.node.IsDir() == prev.isDir {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func flatten(n *synctree.Node, depth int, out []row) []row {
	if !n.IsVisible() {
		return out
	}
	out = append(out, row{node: n, depth: depth})
	if n.IsExpanded() {
		for _, c := range n.Children() {
			out = flatten(c, depth+1, out)
		}
	}
	return out
}
