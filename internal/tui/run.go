package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the tree view and blocks until it exits or ctx is cancelled.
func Run(ctx context.Context, m *Model, d *Dispatcher) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go d.Bind(p.Send)
	defer d.Unbind()

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tree view failed: %w", err)
	}
	return nil
}
