package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestMenuSelect(t *testing.T) {
	m := NewMenu([]string{"/srv/a", "/srv/b"}, "Recent projects")
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "/srv/b", m.choice)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "/srv/b")
}

func TestMenuCancel(t *testing.T) {
	m := NewMenu([]string{"/srv/a"}, "Recent projects")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, Cancelled, m.choice)
}
