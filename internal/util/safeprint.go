package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// SafePrinter serializes console output so goroutines never interleave
// their lines.
type SafePrinter struct {
	mu        sync.Mutex
	out       io.Writer
	suspended bool
}

// Default is the shared SafePrinter writing to stdout.
var Default = NewPrinter(os.Stdout)

func NewPrinter(w io.Writer) *SafePrinter {
	return &SafePrinter{out: w}
}

// SetOutput redirects the printer.
func (s *SafePrinter) SetOutput(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = w
}

func (s *SafePrinter) Printf(format string, a ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return
	}
	fmt.Fprintf(s.out, format, a...)
}

func (s *SafePrinter) Println(a ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return
	}
	fmt.Fprintln(s.out, a...)
}

// PrintBlock prints a potentially multi-line block atomically, adding the
// trailing newline when it is missing.
func (s *SafePrinter) PrintBlock(block string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return
	}
	io.WriteString(s.out, block)
	if !strings.HasSuffix(block, "\n") {
		io.WriteString(s.out, "\n")
	}
}

// Suspend silences all subsequent prints until Resume is called. The tree
// view suspends the printer while it owns the terminal.
func (s *SafePrinter) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
}

// Resume re-enables printing after Suspend.
func (s *SafePrinter) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = false
}

func (s *SafePrinter) IsSuspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}
