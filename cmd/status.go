package cmd

import (
	"github.com/spf13/cobra"

	"packsync/internal/synctree"
	"packsync/internal/util"
)

type listFlags struct {
	mode     string
	filter   []string
	remoteDB string
	tab      string
	strict   bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "override the sync direction: download or upload")
	cmd.Flags().StringSliceVar(&f.filter, "filter", nil, "change types to show: modified,repo-only,local-only,unchanged")
	cmd.Flags().StringVar(&f.remoteDB, "remote-db", "", "read the remote listing from this index database instead of SSH")
	cmd.Flags().StringVar(&f.tab, "tab", "", "restrict output to one category (mods, config, ...)")
	cmd.Flags().BoolVar(&f.strict, "strict-remote", false, "fail when the remote listing cannot be fetched")
}

// build runs s.buildOnce with these flags and warns on stderr when the
// remote listing had to be skipped.
func (f *listFlags) build(cmd *cobra.Command, s *session, mode synctree.Mode, filter synctree.Filter) ([]synctree.Tab, error) {
	tabs, err := s.buildOnce(cmd.Context(), mode, filter, f.strict)
	if err != nil {
		return nil, err
	}
	if s.remoteErr != nil {
		util.NewPrinter(cmd.ErrOrStderr()).Printf("warning: remote listing unavailable, showing local side only: %v\n", s.remoteErr)
	}
	return tabs, nil
}

// selectTabs returns the tabs matching --tab, or all of them.
func (f *listFlags) selectTabs(tabs []synctree.Tab) ([]synctree.Tab, error) {
	if f.tab == "" {
		return tabs, nil
	}
	c, err := synctree.ParseCategory(f.tab)
	if err != nil {
		return nil, err
	}
	for _, t := range tabs {
		if t.Category == c {
			return []synctree.Tab{t}, nil
		}
	}
	return nil, nil
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print every category tree with its classification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, flags.remoteDB)
			if err != nil {
				return err
			}
			defer s.Close()

			mode, filter, err := s.modeAndFilter(flags.mode, flags.filter)
			if err != nil {
				return err
			}
			tabs, err := flags.build(cmd, s, mode, filter)
			if err != nil {
				return err
			}
			if tabs, err = flags.selectTabs(tabs); err != nil {
				return err
			}

			p := util.NewPrinter(cmd.OutOrStdout())
			p.Printf("%s: %s mode, filter %v\n", s.cfg.ProjectName, mode, filter.Strings())
			for _, t := range tabs {
				renderTab(p, t)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
