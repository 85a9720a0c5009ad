package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"packsync/internal/synctree"
	"packsync/internal/tui"
	"packsync/internal/util"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	flags := &listFlags{}
	var all bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Select whole categories and print what a transfer would touch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.tab == "" && !all {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return errors.New("specify --tab or --all")
				}
				choice, err := pickCategory()
				if err != nil || choice == "" {
					return err
				}
				flags.tab = choice
			}

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
			total := 0
			for _, t := range tabs {
				t.Root.SetChecked(true)
				nodes := synctree.ExtractCheckedActionable(t.Root)
				total += len(nodes)
				if len(nodes) > 0 {
					renderPlan(p, mode, t, nodes)
				}
			}
			p.Printf("%d file(s) to %s\n", total, mode)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "select every category")
	return cmd
}

// pickCategory shows the category menu and returns the chosen key, or ""
// when cancelled.
func pickCategory() (string, error) {
	cats := synctree.Categories()
	items := make([]string, len(cats))
	byTitle := make(map[string]string, len(cats))
	for i, c := range cats {
		items[i] = c.Title()
		byTitle[c.Title()] = c.String()
	}
	choice, err := tui.ShowMenu(items, "Select a category")
	if err != nil {
		return "", err
	}
	return byTitle[choice], nil
}
