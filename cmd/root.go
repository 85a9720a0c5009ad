package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"packsync/internal/config"
	"packsync/internal/history"
	"packsync/internal/util"
)

type rootOptions struct {
	dir      string
	logLevel string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "packsync",
		Short: "Compare a modpack instance with its server and pick what to sync",
		Long: `packsync lists a local modpack instance and the server copy, classifies
every file as modified, repo-only, local-only or unchanged, and lets you tick
what to transfer in a tree per category (mods, config, resource packs, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := projectDir(opts); err == nil {
				return runTree(cmd, opts)
			}
			out := util.NewPrinter(cmd.OutOrStdout())
			out.Println("Config file not found")
			out.Println("USAGE:")
			out.Println("Create one in your instance directory with:")
			out.Println("packsync init")
			out.Println("------------------------------")
			return showRecentWorkspacesMenu(cmd, opts)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "project directory (default: nearest directory holding "+config.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newIndexCmd(opts),
		newCacheCmd(opts),
		newStatusCmd(opts),
		newPlanCmd(opts),
		newTreeCmd(opts),
	)
	return rootCmd
}

// projectDir resolves --dir, falling back to the nearest ancestor of the
// working directory that holds a config file.
func projectDir(opts *rootOptions) (string, error) {
	if opts.dir != "" {
		return opts.dir, nil
	}
	root, err := util.FindProjectRoot(".", config.ConfigFileName)
	if errors.Is(err, util.ErrNoProjectRoot) {
		return "", config.ErrConfigNotFound
	}
	return root, err
}

func showRecentWorkspacesMenu(cmd *cobra.Command, opts *rootOptions) error {
	out := util.NewPrinter(cmd.OutOrStdout())
	if removed, err := history.PruneMissing(config.ConfigFileName); err != nil {
		out.Printf("Could not clean workspace history: %v\n", err)
	} else if len(removed) > 0 {
		out.Printf("Forgot %d workspace(s) without %s\n", len(removed), config.ConfigFileName)
	}
	paths := history.GetAllPaths()
	if len(paths) == 0 {
		out.Println("No recent workspaces found.")
		return nil
	}

	prompt := promptui.SelectWithAdd{
		Label:    "Display recent workspaces (type to search)",
		Items:    paths,
		AddLabel: "Search",
	}
	idx, result, err := prompt.Run()
	if err != nil {
		return promptErr(err)
	}

	if idx == -1 {
		results := history.SearchPaths(result)
		if len(results) == 0 {
			out.Printf("No workspaces found matching '%s'\n", result)
			return nil
		}
		searchPrompt := promptui.Select{Label: "Search results", Items: results}
		if _, result, err = searchPrompt.Run(); err != nil {
			return promptErr(err)
		}
	}

	sub := promptui.Select{
		Label: result,
		Items: []string{"Open tree view", "Remove from history", "Back"},
	}
	_, action, err := sub.Run()
	if err != nil {
		return promptErr(err)
	}
	switch action {
	case "Open tree view":
		opts.dir = result
		return runTree(cmd, opts)
	case "Remove from history":
		if err := history.RemovePath(result); err != nil {
			return err
		}
		out.Printf("Removed %s from history\n", result)
	}
	return nil
}

// promptErr turns Ctrl+C and Ctrl+D in a prompt into a quiet exit.
func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return nil
	}
	return fmt.Errorf("prompt failed: %w", err)
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// ExecuteContext allows running the root command with a supplied context for cancellation.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
