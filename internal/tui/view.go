package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"packsync/internal/refresh"
	"packsync/internal/synctree"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bd93f9"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("#282a36")).Background(lipgloss.Color("#ff79c6"))
	tabStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#6272a4"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f8f8f2")).Background(lipgloss.Color("#44475a"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd"))

	changeStyles = map[synctree.ChangeType]lipgloss.Style{
		synctree.ChangeModified:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb86c")),
		synctree.ChangeRepoOnly:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")),
		synctree.ChangeLocalOnly: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")),
		synctree.ChangeUnchanged: dimStyle,
		synctree.ChangeNone:      dimStyle,
	}
)

// reserved lines: title, tabs, blank, footer, status, help
const chromeLines = 6

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString("\n")
	if m.orch == nil {
		b.WriteString(m.status + "\n")
		return b.String()
	}

	b.WriteString(m.tabBar())
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		if len(m.orch.Tabs()) == 0 {
			b.WriteString(dimStyle.Render("waiting for the first listing...") + "\n")
		} else {
			b.WriteString(dimStyle.Render("nothing matches the active filter") + "\n")
		}
	}
	start, end := m.window()
	for i := start; i < end; i++ {
		line := renderRow(m.rows[i])
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(m.footer())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) tabBar() string {
	tabs := m.orch.Tabs()
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		label := t.Title
		if n := synctree.Count(t.Root).Actionable; n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		if i == m.orch.SelectedTab() {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// window returns the row range that fits the terminal, keeping the cursor
// in view.
func (m *Model) window() (int, int) {
	n := len(m.rows)
	if m.height <= chromeLines || n <= m.height-chromeLines {
		return 0, n
	}
	size := m.height - chromeLines
	start := m.cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

func renderRow(r row) string {
	n := r.node
	marker := "  "
	if n.IsDir() {
		marker = "▸ "
		if n.IsExpanded() {
			marker = "▾ "
		}
	}
	box := "[ ]"
	switch n.CheckState() {
	case synctree.Checked:
		box = "[x]"
	case synctree.Indeterminate:
		box = "[-]"
	}
	if !n.CanCheck() {
		box = dimStyle.Render(box)
	}
	name := n.Name()
	if n.IsDir() {
		name += "/"
	}
	change := changeStyles[n.ChangeType()].Render(n.ChangeType().String())
	return fmt.Sprintf("%s%s%s %s  %s", strings.Repeat("  ", r.depth), marker, box, name, change)
}

func (m *Model) footer() string {
	var counts synctree.Counts
	if t := m.currentTab(); t != nil {
		counts = synctree.Count(t.Root)
	}
	line := fmt.Sprintf("files %d  checked %d  actionable %d  filter: %s",
		counts.Files, counts.Checked, counts.Actionable, strings.Join(m.orch.Filter().Strings(), ","))
	status := m.status
	if m.fetching || m.orch.State() != refresh.Idle {
		status = m.spinner.View() + " " + status
	}
	return dimStyle.Render(line) + "\n" + statusStyle.Render(status)
}
