package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage server-side tasks",
	}
	cmd.AddCommand(
		tasksCreateCmd(),
		tasksListCmd(),
		tasksGetCmd(),
		tasksUpdateCmd(),
		tasksDeleteCmd(),
		taskActionCmd("start", "Started", (*api.Client).StartTask),
		taskActionCmd("complete", "Completed", (*api.Client).CompleteTask),
		taskActionCmd("cancel", "Cancelled", (*api.Client).CancelTask),
		tasksDepsCmd(),
	)
	return cmd
}

// taskObject returns the "task" envelope when present, else the payload.
func taskObject(payload map[string]any) map[string]any {
	if t := api.ObjectField(payload, "task"); t != nil {
		return t
	}
	return payload
}

func statusIcon(status string) string {
	switch strings.ToUpper(status) {
	case "PENDING":
		return "⏳"
	case "IN_PROGRESS":
		return "🔄"
	case "COMPLETED":
		return "✅"
	case "CANCELLED":
		return "❌"
	default:
		return "❓"
	}
}

func priorityBar(p int) string {
	return strings.Repeat("⋅", min(max(p, 0), 10))
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func tasksCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			title := strings.TrimSpace(args[0])
			if title == "" {
				return apierr.Usage("Task title cannot be empty.")
			}
			flags := cmd.Flags()
			priority, _ := flags.GetInt("priority")
			body := map[string]any{"title": title, "priority": priority}
			for flag, key := range map[string]string{
				"description": "description",
				"due-date":    "dueDate",
				"parent-id":   "parentId",
				"chat-id":     "chatId",
			} {
				if v, _ := flags.GetString(flag); strings.TrimSpace(v) != "" {
					body[key] = strings.TrimSpace(v)
				}
			}
			if flags.Changed("estimated-hours") {
				body["estimatedHours"], _ = flags.GetInt("estimated-hours")
			}
			if deps, _ := flags.GetString("dependencies"); deps != "" {
				body["dependencies"] = splitIDs(deps)
			}

			resp, err := c.CreateTask(cmd.Context(), body)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				task := api.ObjectField(resp.JSON, "task")
				t := api.StringField(task, "title")
				if t == "" {
					t = "Untitled"
				}
				id := api.StringField(task, "id")
				if id == "" {
					id = "unknown"
				}
				rt.out.Human("✓ Created task: %s (ID: %s)", t, id)
			})
		}),
	}
	flags := cmd.Flags()
	flags.String("description", "", "Task description")
	flags.Int("priority", 0, "Task priority (0-10)")
	flags.String("due-date", "", "Due date (YYYY-MM-DD)")
	flags.Int("estimated-hours", 0, "Estimated hours")
	flags.String("parent-id", "", "Parent task id, for subtasks")
	flags.String("dependencies", "", "Comma-separated task ids this task depends on")
	flags.String("chat-id", "", "Chat to associate with the task")
	return cmd
}

func tasksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  requireArgs(cobra.NoArgs),
		RunE: withClient(func(cmd *cobra.Command, _ []string, rt *runtime, c *api.Client) error {
			flags := cmd.Flags()
			var filter api.TaskFilter
			filter.Status, _ = flags.GetString("status")
			filter.ParentID, _ = flags.GetString("parent-id")
			filter.ChatID, _ = flags.GetString("chat-id")
			filter.Limit, _ = flags.GetInt("limit")
			filter.Page, _ = flags.GetInt("page")
			if flags.Changed("priority") {
				p, _ := flags.GetInt("priority")
				filter.Priority = &p
			}

			resp, err := c.ListTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				tasks := api.ArrayField(resp.JSON, "tasks")
				if len(tasks) == 0 {
					rt.out.Human("No tasks found.")
					return
				}
				rt.out.Human("Tasks:")
				for _, item := range tasks {
					task, _ := item.(map[string]any)
					priority, _ := api.IntField(task, "priority")
					rt.out.Human("%s [%d] %s %s",
						statusIcon(api.StringField(task, "status")),
						priority,
						priorityBar(priority),
						api.StringField(task, "title"))
					if desc := api.StringField(task, "description"); desc != "" {
						rt.out.Human("    %s", desc)
					}
				}
			})
		}),
	}
	flags := cmd.Flags()
	flags.String("status", "", "Filter by status (PENDING, IN_PROGRESS, COMPLETED, CANCELLED)")
	flags.Int("priority", 0, "Filter by priority")
	flags.String("parent-id", "", "Filter by parent task id")
	flags.String("chat-id", "", "Filter by chat id")
	flags.Int("limit", 20, "Number of tasks to return")
	flags.Int("page", 1, "Page number")
	return cmd
}

func tasksGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show one task",
		Args:  requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			resp, err := c.GetTask(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				task := taskObject(resp.JSON)
				status := api.StringField(task, "status")
				priority, _ := api.IntField(task, "priority")
				rt.out.Human("%s %s [Priority: %d]", statusIcon(status), api.StringField(task, "title"), priority)
				if desc := api.StringField(task, "description"); desc != "" {
					rt.out.Human("Description: %s", desc)
				}
				rt.out.Human("Status: %s", orDash(status))
				rt.out.Human("Created: %s", orDash(api.StringField(task, "createdAt")))
				if done := api.StringField(task, "completedAt"); done != "" {
					rt.out.Human("Completed: %s", done)
				}
			})
		}),
	}
}

func tasksUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update task fields",
		Long: `Update task fields. Only the flags you pass are sent. With --replace the
task is replaced with a PUT instead of patched.`,
		Args: requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			flags := cmd.Flags()
			body := map[string]any{}
			for flag, key := range map[string]string{
				"title":       "title",
				"description": "description",
				"status":      "status",
				"due-date":    "dueDate",
			} {
				if flags.Changed(flag) {
					v, _ := flags.GetString(flag)
					body[key] = strings.TrimSpace(v)
				}
			}
			for flag, key := range map[string]string{
				"priority":        "priority",
				"estimated-hours": "estimatedHours",
				"actual-hours":    "actualHours",
			} {
				if flags.Changed(flag) {
					body[key], _ = flags.GetInt(flag)
				}
			}
			if len(body) == 0 {
				return apierr.Usage("Nothing to update. Pass e.g. --status IN_PROGRESS")
			}

			id := strings.TrimSpace(args[0])
			update := c.PatchTask
			if replace, _ := flags.GetBool("replace"); replace {
				update = c.UpdateTask
			}
			resp, err := update(cmd.Context(), id, body)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				rt.out.Human("✓ Updated task: %s", taskTitle(resp.JSON))
			})
		}),
	}
	flags := cmd.Flags()
	flags.String("title", "", "New title")
	flags.String("description", "", "New description")
	flags.String("status", "", "New status")
	flags.Int("priority", 0, "New priority")
	flags.String("due-date", "", "New due date (YYYY-MM-DD)")
	flags.Int("estimated-hours", 0, "New estimated hours")
	flags.Int("actual-hours", 0, "Actual hours spent")
	flags.Bool("replace", false, "Replace the task (PUT) instead of patching it")
	return cmd
}

func taskTitle(payload map[string]any) string {
	if t := api.StringField(api.ObjectField(payload, "task"), "title"); t != "" {
		return t
	}
	return "Task"
}

func tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			id := strings.TrimSpace(args[0])
			resp, err := c.DeleteTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			rt.out.Request(resp)
			if rt.out.Structured() {
				return rt.out.Data(map[string]any{"success": true, "message": "Task deleted"})
			}
			rt.out.Human("✓ Deleted task: %s", id)
			return nil
		}),
	}
}

// taskActionCmd builds the start/complete/cancel commands.
func taskActionCmd(action, verb string, call func(*api.Client, context.Context, string) (*api.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <task-id>",
		Short: strings.ToUpper(action[:1]) + action[1:] + " a task",
		Args:  requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			resp, err := call(c, cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				rt.out.Human("✓ %s task: %s", verb, taskTitle(resp.JSON))
			})
		}),
	}
}

func tasksDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deps <task-id>",
		Aliases: []string{"dependencies"},
		Short:   "Add dependencies to a task",
		Args:    requireArgs(cobra.ExactArgs(1)),
		RunE: withClient(func(cmd *cobra.Command, args []string, rt *runtime, c *api.Client) error {
			add, _ := cmd.Flags().GetString("add")
			ids := splitIDs(add)
			if len(ids) == 0 {
				return apierr.Usage("Pass --add with comma-separated task ids.")
			}
			id := strings.TrimSpace(args[0])
			resp, err := c.AddTaskDependencies(cmd.Context(), id, ids)
			if err != nil {
				return err
			}
			return rt.out.Result(resp, func() {
				rt.out.Human("✓ Added dependencies to task %s: %s", id, strings.Join(ids, ","))
			})
		}),
	}
	cmd.Flags().String("add", "", "Comma-separated task ids to depend on")
	return cmd
}
