package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Propose, approve and inspect server tool runs",
	}
	cmd.AddCommand(
		toolsProposeCmd(),
		toolsCommitCmd(),
		toolsDenyCmd(),
		toolsRunsCmd(),
	)
	return cmd
}

func toolsProposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Propose a tool call in a workspace",
		Example: `  starbott tools propose --tool-name file.dir --input '{"path":"."}'
  cat input.json | starbott tools propose --tool-name file.write --stdin --yes`,
		Args: requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			flags := cmd.Flags()
			workspace, _ := flags.GetString("workspace-id")
			toolName, _ := flags.GetString("tool-name")
			yes, _ := flags.GetBool("yes")
			denyReason, _ := flags.GetString("deny-reason")

			toolName = strings.TrimSpace(toolName)
			if toolName == "" {
				return apierr.Usage("--tool-name must be non-empty.")
			}
			workspace = strings.TrimSpace(rt.workspace(workspace))
			if workspace == "" {
				return apierr.Usage("--workspace-id is required (or select one with `starbott workspaces use`).")
			}
			input, err := readToolInput(cmd)
			if err != nil {
				return err
			}

			resp, err := c.ProposeTool(cmd.Context(), workspace, toolName, input)
			if err != nil {
				return err
			}
			rt.out.Request(resp)
			requires := resp.Bool("requiresConfirmation")

			if rt.out.Structured() {
				if err := rt.out.Data(resp.JSON); err != nil || !requires || !yes {
					return err
				}
			} else if !requires {
				rt.out.Human("tool completed: runId=%s", orDash(resp.String("runId")))
				if result, ok := resp.JSON["result"]; ok {
					rt.out.Human("%s", prettyJSON(result))
				}
				return nil
			}

			proposalID := resp.String("proposalId")
			if proposalID == "" {
				return apierr.Server("Missing proposalId in response")
			}
			rt.out.Human("tool requires approval: proposalId=%s expiresAt=%s", proposalID, orDash(resp.String("expiresAt")))
			if preview, ok := resp.JSON["preview"]; ok {
				rt.out.Human("%s", prettyJSON(preview))
			}

			approve := yes
			if !approve {
				approve, err = promptApprove(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			if approve {
				res, err := c.CommitTool(cmd.Context(), proposalID)
				if err != nil {
					return err
				}
				if rt.out.Structured() {
					return rt.out.Data(res.JSON)
				}
				rt.out.Human("committed.")
				rt.out.Human("%s", prettyJSON(res.JSON))
				return nil
			}

			res, err := c.DenyTool(cmd.Context(), proposalID, denyReason)
			if err != nil {
				return err
			}
			rt.out.Human("denied.")
			rt.out.Human("%s", prettyJSON(res.JSON))
			return nil
		}),
	}
	flags := cmd.Flags()
	flags.String("workspace-id", "", "Workspace id (defaults to the profile workspace)")
	flags.String("tool-name", "", "Tool to run, e.g. file.read")
	flags.String("input", "", "Tool input as a JSON object")
	flags.String("input-file", "", "Read tool input from a JSON file")
	flags.Bool("stdin", false, "Read tool input from stdin")
	flags.BoolP("yes", "y", false, "Approve without prompting")
	flags.String("deny-reason", "", "Reason sent when the proposal is denied")
	return cmd
}

// readToolInput loads the JSON object passed through exactly one of --input,
// --input-file or --stdin. No source means {}.
func readToolInput(cmd *cobra.Command) (map[string]any, error) {
	flags := cmd.Flags()
	fromStdin, _ := flags.GetBool("stdin")
	sources := 0
	for _, name := range []string{"input", "input-file"} {
		if flags.Changed(name) {
			sources++
		}
	}
	if fromStdin {
		sources++
	}
	if sources > 1 {
		return nil, apierr.Usage("Pass only one of --input, --input-file, or --stdin.")
	}

	var text string
	switch {
	case flags.Changed("input"):
		text, _ = flags.GetString("input")
	case flags.Changed("input-file"):
		path, _ := flags.GetString("input-file")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apierr.Usage("Failed to read %s: %v", path, err)
		}
		text = string(data)
	case fromStdin:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, apierr.Wrap(apierr.KindGeneric, err, "Failed reading stdin: %v", err)
		}
		text = string(data)
	}
	return parseToolInput(text)
}

func parseToolInput(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, apierr.Usage("Invalid JSON input: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apierr.Usage("Tool input must be a JSON object.")
	}
	return obj, nil
}

func promptApprove(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "Approve? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, apierr.Wrap(apierr.KindGeneric, err, "Failed reading input: %v", err)
	}
	s := strings.ToLower(strings.TrimSpace(line))
	return s == "y" || s == "yes", nil
}

func toolsCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Approve a pending tool proposal",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			pid, err := proposalIDFlag(cmd)
			if err != nil {
				return err
			}
			resp, err := c.CommitTool(cmd.Context(), pid)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				rt.out.Human("%s", prettyJSON(resp.JSON))
			})
		}),
	}
	cmd.Flags().String("proposal-id", "", "Proposal to approve")
	return cmd
}

func toolsDenyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deny",
		Short: "Reject a pending tool proposal",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			pid, err := proposalIDFlag(cmd)
			if err != nil {
				return err
			}
			reason, _ := cmd.Flags().GetString("reason")
			resp, err := c.DenyTool(cmd.Context(), pid, reason)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				rt.out.Human("%s", prettyJSON(resp.JSON))
			})
		}),
	}
	cmd.Flags().String("proposal-id", "", "Proposal to reject")
	cmd.Flags().String("reason", "", "Reason recorded with the denial")
	return cmd
}

func proposalIDFlag(cmd *cobra.Command) (string, error) {
	pid, _ := cmd.Flags().GetString("proposal-id")
	pid = strings.TrimSpace(pid)
	if pid == "" {
		return "", apierr.Usage("--proposal-id is required.")
	}
	return pid, nil
}

func toolsRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent tool runs",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			workspace, _ := cmd.Flags().GetString("workspace-id")
			toolName, _ := cmd.Flags().GetString("tool-name")
			limit, _ := cmd.Flags().GetInt("limit")

			resp, err := c.ToolRuns(cmd.Context(), strings.TrimSpace(workspace), strings.TrimSpace(toolName), limit)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				runs := api.ArrayField(resp.JSON, "runs")
				if len(runs) == 0 {
					rt.out.Human("No tool runs.")
					return
				}
				for _, item := range runs {
					r, _ := item.(map[string]any)
					rt.out.Human("- %s %s %s (%s)",
						orDash(api.StringField(r, "createdAt")),
						orDash(api.StringField(r, "toolName")),
						orDash(api.StringField(r, "status")),
						orDash(api.StringField(r, "id")))
				}
			})
		}),
	}
	cmd.Flags().String("workspace-id", "", "Only runs in this workspace")
	cmd.Flags().String("tool-name", "", "Only runs of this tool")
	cmd.Flags().Int("limit", 0, "Maximum number of runs")
	return cmd
}
