package main

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/logger"
	"github.com/Dhanuzh/starbott/internal/theme"
	"github.com/Dhanuzh/starbott/internal/tui"
)

func tuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen chat client (default)",
		Args:  requireArgs(cobra.NoArgs),
		RunE:  runTUI,
	}
	cmd.Flags().Bool("no-stream", false, "Use blocking chat requests instead of streaming")
	cmd.Flags().StringP("model", "m", "", "Initial model selector")
	return cmd
}

// runTUI is the default command - starts the TUI
func runTUI(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}

	// The screen belongs to bubbletea; logs go to a file next to the config.
	flags := cmd.Root().PersistentFlags()
	verbose, _ := flags.GetBool("verbose")
	debug, _ := flags.GetBool("debug")
	logPath := filepath.Join(rt.store.Dir(), "tui.log")
	log, closeLog, err := logger.New(logger.Config{Level: logger.LevelFor(verbose, debug), Output: logPath})
	if err != nil {
		return err
	}
	defer closeLog()
	rt.logger = log

	c, err := rt.client()
	if err != nil {
		return err
	}

	themeName := rt.store.Theme()
	if names := theme.NewRegistry().Names(); !slices.Contains(names, themeName) {
		log.Warn("unknown theme, using default", "theme", themeName, "valid", names)
	}

	noStream, _ := cmd.Flags().GetBool("no-stream")
	var provider, model string
	if selector, _ := cmd.Flags().GetString("model"); selector != "" {
		provider, model = api.ParseModelSelector(selector)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	name := rt.profile()
	profile, _ := rt.store.Profile(name)

	return tui.Run(cmd.Context(), tui.Config{
		Options: tui.Options{
			Profile:      name,
			APIURL:       c.BaseURL(),
			WorkspaceID:  profile.WorkspaceID,
			TokenPresent: c.HasToken(),
			Provider:     provider,
			Model:        model,
			Stream:       !noStream,
			WorkingDir:   wd,
			Store:        rt.store,
			HistoryFile:  filepath.Join(rt.store.Dir(), "history.jsonl"),
		},
		Client: c,
		Theme:  themeName,
		Logger: log,
	})
}
