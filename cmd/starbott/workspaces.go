package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
	"github.com/Dhanuzh/starbott/internal/tui"
)

func workspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "Manage server workspaces",
	}
	cmd.AddCommand(
		workspacesListCmd(),
		workspacesCreateCmd(),
		workspacesUseCmd(),
		workspacesPermissionsCmd(),
	)
	return cmd
}

func workspacesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			resp, err := c.Workspaces(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				items := api.ArrayField(resp.JSON, "workspaces")
				if len(items) == 0 {
					rt.out.Human("No workspaces.")
					return
				}
				for _, item := range items {
					w, _ := item.(map[string]any)
					rt.out.Human("- %s  (%s)  %s",
						orDash(api.StringField(w, "name")),
						orDash(api.StringField(w, "id")),
						orDash(api.StringField(w, "rootPath")))
				}
			})
		}),
	}
}

func workspacesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a local directory as a workspace",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			name, _ := cmd.Flags().GetString("name")
			root, _ := cmd.Flags().GetString("root")

			resolved, err := resolveWorkspaceRoot(root)
			if err != nil {
				return err
			}
			name = strings.TrimSpace(name)
			if name == "" {
				name = filepath.Base(resolved)
			}

			resp, err := c.CreateWorkspace(cmd.Context(), name, resolved)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				ws := api.ObjectField(resp.JSON, "workspace")
				rt.out.Human("workspace created: id=%s rootPath=%s",
					orDash(api.StringField(ws, "id")),
					orDash(api.StringField(ws, "rootPath")))
			})
		}),
	}
	cmd.Flags().String("name", "", "Workspace name (defaults to the directory name)")
	cmd.Flags().String("root", "", "Workspace root directory (defaults to the current directory)")
	return cmd
}

// resolveWorkspaceRoot returns the absolute, symlink-free form of root, or of
// the working directory when root is empty.
func resolveWorkspaceRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err == nil {
		abs, err = filepath.EvalSymlinks(abs)
	}
	if err != nil {
		return "", apierr.Usage("Invalid workspace root %s: %v", root, err)
	}
	return abs, nil
}

func workspacesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id-or-name>",
		Short: "Select the workspace used by chat, tools and the TUI",
		Args:  requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			resp, err := c.Workspaces(cmd.Context())
			if err != nil {
				return err
			}
			rt.out.Request(resp)

			options, _ := tui.ParseWorkspaceOptions(resp.JSON)
			ws, err := pickWorkspace(options, args[0])
			if err != nil {
				return err
			}
			if err := rt.store.SaveWorkspace(rt.profile(), ws.ID); err != nil {
				return err
			}

			if rt.out.Structured() {
				return rt.out.Data(map[string]any{"ok": true, "workspaceId": ws.ID, "name": ws.Name})
			}
			rt.out.Human("Active workspace: %s (%s)", ws.Name, ws.ID)
			return nil
		}),
	}
}

type workspaceSource []tui.WorkspaceOption

func (s workspaceSource) String(i int) string { return s[i].Name }
func (s workspaceSource) Len() int            { return len(s) }

// pickWorkspace matches query against ids exactly, then names fuzzily.
// Archived workspaces cannot be selected.
func pickWorkspace(options []tui.WorkspaceOption, query string) (tui.WorkspaceOption, error) {
	query = strings.TrimSpace(query)
	var live []tui.WorkspaceOption
	for _, o := range options {
		if o.ID == query {
			if o.Archived {
				return tui.WorkspaceOption{}, apierr.Usage("Workspace %s is archived.", o.ID)
			}
			return o, nil
		}
		if !o.Archived {
			live = append(live, o)
		}
	}
	matches := fuzzy.FindFrom(query, workspaceSource(live))
	if len(matches) == 0 {
		return tui.WorkspaceOption{}, apierr.Usage("No workspace matches %q.", query)
	}
	return live[matches[0].Index], nil
}

var permissionFlags = []struct {
	flag string
	key  string
}{
	{"can-read-files", "can_read_files"},
	{"can-write-files", "can_write_files"},
	{"can-read-images", "can_read_images"},
	{"can-write-images", "can_write_images"},
	{"can-web-search", "can_web_search"},
}

func workspacesPermissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions <workspace-id>",
		Short: "Update workspace permissions",
		Example: `  starbott workspaces permissions ws_123 --can-write-files true
  starbott workspaces permissions ws_123 --user-id u_1 --can-web-search false`,
		Args: requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			body, err := permissionBody(cmd)
			if err != nil {
				return err
			}
			resp, err := c.SetWorkspacePermissions(cmd.Context(), strings.TrimSpace(args[0]), body)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				rt.out.Human("permissions updated: %s", summarizePermission(api.ObjectField(resp.JSON, "permission")))
			})
		}),
	}
	cmd.Flags().String("user-id", "", "Apply to this user instead of the caller")
	for _, f := range permissionFlags {
		cmd.Flags().String(f.flag, "", "true or false")
	}
	return cmd
}

func permissionBody(cmd *cobra.Command) (map[string]any, error) {
	body := map[string]any{}
	if uid, _ := cmd.Flags().GetString("user-id"); strings.TrimSpace(uid) != "" {
		body["userId"] = strings.TrimSpace(uid)
	}
	for _, f := range permissionFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		raw, _ := cmd.Flags().GetString(f.flag)
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, apierr.Usage("--%s expects true or false, got %q.", f.flag, raw)
		}
		body[f.key] = v
	}
	if len(body) == 0 {
		return nil, apierr.Usage("No permission fields provided. Pass e.g. --can-write-files true")
	}
	return body, nil
}

func summarizePermission(perm map[string]any) string {
	field := func(k string) bool {
		b, _ := perm[k].(bool)
		return b
	}
	return "read_files=" + strconv.FormatBool(field("can_read_files")) +
		" write_files=" + strconv.FormatBool(field("can_write_files")) +
		" read_images=" + strconv.FormatBool(field("can_read_images")) +
		" write_images=" + strconv.FormatBool(field("can_write_images")) +
		" web_search=" + strconv.FormatBool(field("can_web_search"))
}
