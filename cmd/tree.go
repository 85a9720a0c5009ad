package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"packsync/internal/config"
	"packsync/internal/history"
	"packsync/internal/refresh"
	"packsync/internal/synctree"
	"packsync/internal/tui"
	"packsync/internal/util"
	"packsync/internal/watcher"
)

func newTreeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Interactive selection tree with live refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, opts)
		},
	}
}

func runTree(cmd *cobra.Command, opts *rootOptions) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the tree view needs a terminal; use 'packsync status' instead")
	}
	ctx := cmd.Context()

	s, err := openSession(opts, "")
	if err != nil {
		return err
	}
	defer s.Close()
	root := s.cfg.AbsLocalPath()
	if err := history.Record(root, s.cfg.ProjectName); err != nil {
		s.log.Warn("failed to record workspace history", zap.Error(err))
	}

	filter := s.cfg.ActiveFilter()
	st, err := config.LoadState(root)
	if err != nil {
		s.log.Warn("ignoring ui state", zap.Error(err))
		st = &config.UIState{}
	}
	if len(st.Filter) > 0 {
		if f, err := synctree.ParseFilter(st.Filter); err == nil {
			filter = f
		}
	}

	d := tui.NewDispatcher()
	m := tui.NewModel(tui.ModelOptions{
		Title:     fmt.Sprintf("packsync · %s (%s)", s.cfg.ProjectName, s.cfg.SyncMode()),
		StateRoot: root,
		Context:   ctx,
		Logger:    s.log,
	})
	ropts := s.options(s.cfg.SyncMode(), filter)
	ropts.Dispatcher = d
	ropts.SelectedTab = st.SelectedTab
	ropts.Listener = m.OnNodeChanged
	ropts.OnApplied = m.OnApplied
	o, err := refresh.New(ropts)
	if err != nil {
		return err
	}
	defer o.Close()
	m.Attach(o)

	w, err := watcher.New(root, s.scanner.Ignore, watcher.NotifierFunc(func(p string) { o.NotifyLocalChanged(p) }), s.log)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		s.log.Warn("live refresh disabled", zap.Error(err))
	}
	defer w.Stop()

	go func() {
		gen := o.LocalGen()
		local, err := s.scanner.Scan(ctx)
		if err != nil {
			s.log.Error("initial scan failed", zap.Error(err))
			return
		}
		o.SetLocalAt(gen, local)
		if s.fetcher != nil {
			_ = o.Refetch(ctx)
		}
	}()

	util.Default.Suspend()
	defer util.Default.Resume()
	return tui.Run(ctx, m, d)
}
