package cmd

import (
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"packsync/internal/config"
	"packsync/internal/history"
	"packsync/internal/synctree"
	"packsync/internal/util"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	var mode, name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize config file",
		Long:  `Generate a default packsync.yaml and .sync_ignore in the project directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := util.NewPrinter(cmd.OutOrStdout())
			dir := opts.dir
			if dir == "" {
				dir = "."
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			out.Printf("You are in: %s\n", abs)

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			if mode == "" && interactive {
				sel := promptui.Select{
					Label: "Sync direction",
					Items: []string{"download", "upload"},
				}
				if _, mode, err = sel.Run(); err != nil {
					return promptErr(err)
				}
			}
			if name == "" {
				name = filepath.Base(abs)
				if interactive {
					p := promptui.Prompt{Label: "Project name", Default: name}
					if name, err = p.Run(); err != nil {
						return promptErr(err)
					}
				}
			}

			if mode != "" {
				if _, err := synctree.ParseMode(mode); err != nil {
					return err
				}
			}
			created, err := config.WriteTemplate(abs, name, mode)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				out.Println("Config file already exists.")
			}
			for _, f := range created {
				out.Printf("Created %s\n", f)
			}
			if err := history.Record(abs, name); err != nil {
				out.Printf("⚠️  Failed to record workspace history: %v\n", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "sync direction: download or upload")
	cmd.Flags().StringVar(&name, "name", "", "project name (default: directory name)")
	return cmd
}
