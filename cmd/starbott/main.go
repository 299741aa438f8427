package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	// earlyinit must be listed before bubbletea so its init() runs first and
	// pre-sets lipgloss.SetHasDarkBackground, preventing bubbletea's init()
	// from sending an OSC 11 terminal colour query that leaks into stdin on WSL2.
	_ "github.com/Dhanuzh/starbott/internal/earlyinit"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	api.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		out := printerFromFlags(rootCmd)
		out.Error(err)
		os.Exit(apierr.ExitCodeOf(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "starbott",
		Short: "Starbot - terminal client for the Starbot API",
		Long: `Starbott talks to a Starbot API server. Run it without a sub-command
to open the full-screen chat client, or use the sub-commands for scripting.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Flags
	pf := rootCmd.PersistentFlags()
	pf.String("profile", "", "Config profile to use")
	pf.String("api-url", "", "Override the API base URL")
	pf.Bool("json", false, "Print machine readable JSON")
	pf.Bool("yaml", false, "Print machine readable YAML")
	pf.BoolP("quiet", "q", false, "Suppress human readable output")
	pf.Int("timeout", 30000, "Request timeout in milliseconds")
	pf.Int("retries", 2, "Extra attempts for idempotent requests")
	pf.BoolP("verbose", "v", false, "Print request details to stderr")
	pf.Bool("debug", false, "Enable debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.Flags().Bool("no-stream", false, "Use blocking chat requests in the TUI")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apierr.Usage("%v", err)
	})

	// Sub-commands
	rootCmd.AddCommand(
		tuiCmd(),
		chatCmd(),
		healthCmd(),
		whoamiCmd(),
		usageCmd(),
		statusCmd(),
		modelsCmd(),
		workspacesCmd(),
		toolsCmd(),
		tasksCmd(),
		configCmd(),
		authCmd(),
		ptyCmd(),
		versionCmd(),
	)

	return rootCmd
}

// requireArgs wraps cobra's arity checks so a wrong argument count exits as a
// usage error.
func requireArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			var e *apierr.Error
			if errors.As(err, &e) {
				return err
			}
			return apierr.Usage("%v", err)
		}
		return nil
	}
}
