package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// applyMsg carries a function that must run inside Update.
type applyMsg struct{ fn func() }

// Dispatcher runs functions on the bubbletea event loop by wrapping them in
// a message. Functions dispatched before Bind are queued; after Unbind they
// are dropped.
type Dispatcher struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []func()
	closed  bool
}

func NewDispatcher() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	send := d.send
	if send == nil {
		d.pending = append(d.pending, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	send(applyMsg{fn: fn})
}

// Bind starts delivery through send, usually (*tea.Program).Send, and
// flushes the queue. send may block until the program reads the message, so
// Bind must not run on the goroutine that starts the program.
func (d *Dispatcher) Bind(send func(tea.Msg)) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.send = send
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()
	for _, fn := range pending {
		send(applyMsg{fn: fn})
	}
}

// Unbind stops delivery for good.
func (d *Dispatcher) Unbind() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.send = nil
	d.pending = nil
}
