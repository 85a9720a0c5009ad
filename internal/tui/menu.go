package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Cancelled is the choice reported when the menu is left without picking.
const Cancelled = "cancelled"

type menuItem string

func (m menuItem) Title() string       { return string(m) }
func (m menuItem) Description() string { return "" }
func (m menuItem) FilterValue() string { return string(m) }

// compactDelegate reduces per-item height to 1 line to make list dense
type compactDelegate struct{ list.DefaultDelegate }

func (d compactDelegate) Height() int  { return 1 }
func (d compactDelegate) Spacing() int { return 0 }

func (d compactDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(menuItem)
	if !ok {
		return
	}
	if index == m.Index() {
		_, _ = io.WriteString(w, d.Styles.SelectedTitle.Render("> "+it.Title()))
		return
	}
	_, _ = io.WriteString(w, d.Styles.NormalTitle.Render("  "+it.Title()))
}

type menuModel struct {
	list   list.Model
	choice string
}

// NewMenu builds a single-column picker over items.
func NewMenu(items []string, title string) *menuModel {
	lItems := make([]list.Item, 0, len(items))
	for _, it := range items {
		lItems = append(lItems, menuItem(it))
	}

	delegate := compactDelegate{list.NewDefaultDelegate()}
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff79c6")).Bold(true)
	delegate.Styles.NormalTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f8f8f2"))

	height := len(items) + 4
	if height > 16 {
		height = 16
	}
	l := list.New(lItems, delegate, 60, height)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(len(items) > height-4)

	return &menuModel{list: l}
}

func (m *menuModel) Init() tea.Cmd { return nil }

func (m *menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			if itm, ok := m.list.SelectedItem().(menuItem); ok {
				m.choice = string(itm)
			}
			return m, tea.Quit
		case "esc", "q", "ctrl+c":
			m.choice = Cancelled
			return m, tea.Quit
		case "up", "k":
			m.list.CursorUp()
			return m, nil
		case "down", "j":
			m.list.CursorDown()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *menuModel) View() string {
	if m.choice != "" {
		return fmt.Sprintf("Selected: %s\n", m.choice)
	}
	return m.list.View()
}

// ShowMenu blocks and returns the selected item (or Cancelled).
func ShowMenu(items []string, title string) (string, error) {
	m := NewMenu(items, title)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return "", err
	}
	if m.choice == "" {
		return Cancelled, nil
	}
	return m.choice, nil
}
