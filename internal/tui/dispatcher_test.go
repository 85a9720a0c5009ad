package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherQueuesUntilBound(t *testing.T) {
	d := NewDispatcher()
	var ran []int
	d.Dispatch(func() { ran = append(ran, 1) })
	d.Dispatch(func() { ran = append(ran, 2) })

	var msgs []tea.Msg
	d.Bind(func(msg tea.Msg) { msgs = append(msgs, msg) })
	d.Dispatch(func() { ran = append(ran, 3) })

	require.Len(t, msgs, 3)
	for _, msg := range msgs {
		msg.(applyMsg).fn()
	}
	assert.Equal(t, []int{1, 2, 3}, ran)
}

func TestDispatcherDropsAfterUnbind(t *testing.T) {
	d := NewDispatcher()
	var msgs []tea.Msg
	d.Bind(func(msg tea.Msg) { msgs = append(msgs, msg) })
	d.Unbind()
	d.Dispatch(func() {})
	d.Bind(func(msg tea.Msg) { msgs = append(msgs, msg) })
	d.Dispatch(func() {})
	assert.Empty(t, msgs)
}
