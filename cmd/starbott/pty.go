package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/pty"
)

func ptyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pty",
		Short: "Run commands inside a pseudo-terminal",
	}
	cmd.AddCommand(ptyRunCmd())
	return cmd
}

func ptyRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command>...",
		Short: "Run commands one after another in a fresh shell session",
		Long: `Spawn a shell in a pseudo-terminal, send each argument as a command line
and print what the terminal shows. A command is considered finished when the
session has been silent for --settle, looks like it is waiting for input, or
the shell exits.`,
		Example: `  starbott pty run "cd /tmp" "ls -la"
  starbott pty run --shell "bash --norc" -- "python3 --version"`,
		Args: requireArgs(cobra.MinimumNArgs(1)),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			flags := cmd.Flags()
			cfg := pty.DefaultConfig()
			cfg.Shell, _ = flags.GetString("shell")
			cfg.Dir, _ = flags.GetString("dir")
			cfg.Cols, _ = flags.GetUint16("cols")
			cfg.Rows, _ = flags.GetUint16("rows")
			settle, _ := flags.GetDuration("settle")

			mgr := pty.NewManager(cfg)
			defer mgr.CloseAll()

			id, session, err := mgr.Create(cmd.Context())
			if err != nil {
				return err
			}
			rt.logger.Debug("pty session started", "id", id, "shell", cfg.Shell)

			// Let the shell print its prompt before the first command.
			if _, err := session.ReadTimeout(settle); err != nil {
				return err
			}

			type result struct {
				Command string `json:"command" yaml:"command"`
				Output  string `json:"output" yaml:"output"`
			}
			var results []result
			for _, line := range args {
				out, err := session.Execute(cmd.Context(), line, settle)
				results = append(results, result{Command: line, Output: out})
				if !rt.out.Structured() {
					rt.out.Human("%s", strings.TrimRight(out, "\r\n"))
				}
				if err != nil {
					return err
				}
				if session.State() == pty.StateExited {
					break
				}
			}

			if rt.out.Structured() {
				return rt.out.Data(map[string]any{
					"sessionId": id,
					"state":     session.State().String(),
					"results":   results,
				})
			}
			return nil
		}),
	}
	flags := cmd.Flags()
	flags.String("shell", "/bin/bash", "Shell command line to spawn")
	flags.String("dir", "", "Working directory for the shell")
	flags.Uint16("cols", 120, "Terminal width")
	flags.Uint16("rows", 40, "Terminal height")
	flags.Duration("settle", 500*time.Millisecond, "Silence that ends a command")
	return cmd
}
