package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"packsync/cmd"
	"packsync/internal/events"
	"packsync/internal/logging"
)

func main() {
	// Capture original terminal state (if stdin is a TTY) so we can restore on exit.
	var origState *term.State
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if st, err := term.GetState(int(os.Stdin.Fd())); err == nil {
			origState = st
		}
	}
	restore := func() {
		if origState != nil {
			_ = term.Restore(int(os.Stdin.Fd()), origState)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Components ask for shutdown through the bus.
	_ = events.GlobalBus.Subscribe(events.EventShutdownRequested, func() {
		logging.L().Info("shutdown requested from component")
		cancel()
	})

	err := cmd.ExecuteContext(ctx)
	_ = logging.Sync()
	restore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
