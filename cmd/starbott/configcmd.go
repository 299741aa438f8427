package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/apierr"
	"github.com/Dhanuzh/starbott/internal/config"
	"github.com/Dhanuzh/starbott/internal/theme"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or update configuration",
		Long:  "View or update configuration.\n\n" + config.GetConfigPrecedence(),
	}

	show := configShowCmd()
	cmd.AddCommand(
		show,
		configInitCmd(),
		configGetCmd(),
		configSetCmd(),
		configProfilesCmd(),
		configUseCmd(),
		configPathCmd(),
	)

	// Default to show
	cmd.RunE = show.RunE
	return cmd
}

// withRuntime is withClient for commands that never reach the network.
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, args, rt)
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configuration with secrets redacted",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			cfg := rt.store.Snapshot()
			if err := cfg.Validate(theme.NewRegistry().Names()); err != nil {
				rt.logger.Warn("config has problems", "path", rt.store.Path(), "error", err)
			}
			text := cfg.String()

			if rt.out.Structured() {
				var v map[string]any
				if err := json.Unmarshal([]byte(text), &v); err != nil {
					return apierr.Wrap(apierr.KindGeneric, err, "Failed to encode config: %v", err)
				}
				return rt.out.Data(map[string]any{"path": rt.store.Path(), "config": v})
			}
			rt.out.Human("# %s", rt.store.Path())
			rt.out.Human("%s", text)
			return nil
		}),
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			if rt.out.Structured() {
				return rt.out.Data(map[string]any{"path": rt.store.Path()})
			}
			rt.out.Human("%s", rt.store.Path())
			return nil
		}),
	}
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or update the active profile",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			name := rt.profile()
			rt.store.EnsureProfile(name)

			if apiURL, _ := cmd.Flags().GetString("api-url"); strings.TrimSpace(apiURL) != "" {
				if err := rt.store.SetProfileValue(name, "api_url", apiURL); err != nil {
					return err
				}
			}

			token, _ := cmd.Flags().GetString("token")
			if strings.TrimSpace(token) == "" && !config.IsCI() && !rt.out.Structured() && !rt.out.quiet && config.IsTerminal(os.Stdin) {
				var err error
				token, err = config.ReadHiddenInput("Token (optional, Enter to skip): ", os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(token) != "" {
				if err := rt.store.SetProfileValue(name, "token", token); err != nil {
					return err
				}
			}

			if err := rt.store.UseProfile(name); err != nil {
				return err
			}
			if rt.out.Structured() {
				return rt.out.Data(map[string]any{"ok": true, "path": rt.store.Path()})
			}
			rt.out.Human("Config initialized: %s", rt.store.Path())
			return nil
		}),
	}
	// Local --api-url shadows the global override: here it is the value to save.
	cmd.Flags().String("api-url", "", "API base URL to store in the profile")
	cmd.Flags().String("token", "", "Bearer token to store in the profile")
	return cmd
}

func configGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one profile value (apiUrl, token, workspaceId)",
		Args:      requireArgs(cobra.ExactArgs(1)),
		ValidArgs: []string{"apiUrl", "token", "workspaceId"},
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			name := rt.profile()
			profile, ok := rt.store.Profile(name)
			if !ok {
				return apierr.Usage("Profile '%s' not found. Run `starbott config init` first.", name)
			}

			var key, value string
			switch strings.ToLower(strings.TrimSpace(args[0])) {
			case "apiurl", "api_url":
				key, value = "apiUrl", profile.APIURL
			case "workspaceid", "workspace_id":
				key, value = "workspaceId", profile.WorkspaceID
			case "token":
				key, value = "token", rt.store.ResolveToken(name)
				if show, _ := cmd.Flags().GetBool("show-token"); !show {
					value = apierr.RedactSecret(value)
				}
			default:
				return apierr.Usage("Unknown config key %q (expected apiUrl, token or workspaceId).", args[0])
			}

			if rt.out.Structured() {
				var v any
				if value != "" {
					v = value
				}
				return rt.out.Data(map[string]any{"key": key, "value": v})
			}
			if value == "" {
				value = "(not set)"
			}
			rt.out.Human("%s", value)
			return nil
		}),
	}
	cmd.Flags().Bool("show-token", false, "Print the token without redaction")
	return cmd
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a profile value (apiUrl, token, workspaceId)",
		Args:  requireArgs(cobra.ExactArgs(2)),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			if err := rt.store.SetProfileValue(rt.profile(), args[0], args[1]); err != nil {
				return err
			}
			if rt.out.Structured() {
				return rt.out.Data(map[string]any{"ok": true})
			}
			rt.out.Human("Config updated.")
			return nil
		}),
	}
}

func configProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profiles; the active one is marked with *",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			active := rt.profile()
			names := rt.store.Profiles()

			if rt.out.Structured() {
				list := make([]map[string]any, 0, len(names))
				for _, name := range names {
					p, _ := rt.store.Profile(name)
					list = append(list, map[string]any{
						"name":     name,
						"active":   name == active,
						"apiUrl":   p.APIURL,
						"hasToken": p.Token != "",
					})
				}
				return rt.out.Data(map[string]any{"profiles": list})
			}

			for _, name := range names {
				marker := " "
				if name == active {
					marker = "*"
				}
				rt.out.Human("%s %s", marker, name)
			}
			return nil
		}),
	}
}

func configUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Switch the active profile, creating it if needed",
		Args:  requireArgs(cobra.ExactArgs(1)),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			if err := rt.store.UseProfile(args[0]); err != nil {
				return err
			}
			name := rt.store.ActiveProfile("")
			if rt.out.Structured() {
				return rt.out.Data(map[string]any{"ok": true, "profile": name})
			}
			rt.out.Human("Active profile: %s", name)
			return nil
		}),
	}
}
