package tui

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Dhanuzh/starbott/internal/api"
)

// Job is one unit of background work. App transitions return jobs; the
// Dispatcher runs each on its own goroutine with a cloned client, and the
// job reports back only through send.
type Job struct {
	Kind   string
	Detail string
	run    func(ctx context.Context, c *api.Client, tag Tag, send func(Msg))
}

// Run executes the job synchronously. Tests use it to drive a job without a
// Dispatcher.
func (j Job) Run(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
	if j.run != nil {
		j.run(ctx, c, tag, send)
	}
}

func result(resp *api.Response, err error) Result {
	return Result{Resp: resp, Err: err}
}

// ─── Fetches ────────────────────────────────────────────────────────────────────

func fetchModels() Job {
	return Job{Kind: "models", run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ModelsMsg{Tag: tag, Result: result(c.Models(ctx))})
	}}
}

func fetchHealth() Job {
	return Job{Kind: "health", run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(HealthMsg{Tag: tag, Result: result(c.Health(ctx))})
	}}
}

func fetchWorkspaces() Job {
	return Job{Kind: "workspaces", run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(WorkspacesMsg{Tag: tag, Result: result(c.Workspaces(ctx))})
	}}
}

func fetchThreads(workspaceID string) Job {
	return Job{Kind: "threads", Detail: workspaceID, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ThreadsMsg{Tag: tag, Result: result(c.Threads(ctx, workspaceID))})
	}}
}

func fetchThreadMessages(threadID string) Job {
	return Job{Kind: "thread.messages", Detail: threadID, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ThreadMessagesMsg{Tag: tag, ThreadID: threadID, Result: result(c.ThreadMessages(ctx, threadID))})
	}}
}

func fetchMemory() Job {
	return Job{Kind: "memory", run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(MemoryMsg{Tag: tag, Result: result(c.Memory(ctx, 50))})
	}}
}

func fetchMemorySettings() Job {
	return Job{Kind: "memory.settings", run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(MemorySettingsMsg{Tag: tag, Result: result(c.MemorySettings(ctx))})
	}}
}

func toggleMemory(enabled bool) Job {
	detail := "off"
	if enabled {
		detail = "on"
	}
	return Job{Kind: "memory.toggle", Detail: detail, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(MemorySettingsMsg{Tag: tag, Result: result(c.SetMemoryEnabled(ctx, enabled))})
	}}
}

func fetchFiles(workspaceID, path string) Job {
	return Job{Kind: "files", Detail: path, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(FilesMsg{Tag: tag, Path: path, Result: result(c.Files(ctx, workspaceID, path))})
	}}
}

// ─── Chat ───────────────────────────────────────────────────────────────────────

func chatRequest(body api.ChatRequest) Job {
	return Job{Kind: "chat", run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ChatResultMsg{Tag: tag, Result: result(c.Chat(ctx, body))})
	}}
}

func cancelChat(chatID string) Job {
	return Job{Kind: "chat.cancel", Detail: chatID, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ChatCancelledMsg{Tag: tag, Result: result(c.CancelChat(ctx, chatID))})
	}}
}

// chatStream forwards stream events as they arrive. It always ends with
// exactly one StreamDoneMsg or StreamErrorMsg, including when the server
// closes the stream without a final event or the connection drops.
func chatStream(body api.ChatRequest) Job {
	return Job{Kind: "chat.stream", run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		finished := false
		err := c.ChatStream(ctx, body, func(ev api.Event) error {
			msg, terminal := streamMessage(tag, ev)
			if msg != nil {
				send(msg)
			}
			if terminal {
				finished = true
				return api.ErrStopStream
			}
			return nil
		})
		switch {
		case finished:
		case err != nil:
			send(StreamErrorMsg{Tag: tag, Text: err.Error()})
		default:
			send(StreamDoneMsg{Tag: tag, Meta: map[string]any{}})
		}
	}}
}

// streamMessage maps one server event to a Msg. Unknown kinds map to nil.
func streamMessage(tag Tag, ev api.Event) (Msg, bool) {
	var data map[string]any
	if err := json.Unmarshal([]byte(ev.Data), &data); err != nil {
		data = nil
	}
	switch ev.Kind {
	case "token", "token.delta":
		// Token text is kept verbatim; leading spaces are significant.
		text := ev.Data
		if data != nil {
			text, _ = data["text"].(string)
		}
		if text == "" {
			return nil, false
		}
		return StreamTokenMsg{Tag: tag, Text: text, ChatID: api.StringField(data, "chatId")}, false
	case "status":
		s := api.StringField(data, "message")
		chatID := api.StringField(data, "chatId")
		if s == "" && chatID == "" {
			return nil, false
		}
		return StreamStatusMsg{Tag: tag, Text: s, ChatID: chatID}, false
	case "done", "message.final":
		if data == nil {
			data = map[string]any{}
		}
		return StreamDoneMsg{Tag: tag, Meta: data}, true
	case "error":
		text := api.StringField(data, "message")
		if text == "" {
			text = strings.TrimSpace(ev.Data)
		}
		if text == "" {
			text = "stream failed"
		}
		return StreamErrorMsg{Tag: tag, Text: text}, true
	default:
		return nil, false
	}
}

// ─── Tools ──────────────────────────────────────────────────────────────────────

func proposeTool(workspaceID, toolName string, input any) Job {
	return Job{Kind: "tool.propose", Detail: toolName, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ToolMsg{Tag: tag, Tool: toolName, Phase: ToolPropose, Result: result(c.ProposeTool(ctx, workspaceID, toolName, input))})
	}}
}

func commitTool(toolName, proposalID string) Job {
	return Job{Kind: "tool.commit", Detail: toolName, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ToolMsg{Tag: tag, Tool: toolName, Phase: ToolCommit, Result: result(c.CommitTool(ctx, proposalID))})
	}}
}

func denyTool(toolName, proposalID string) Job {
	return Job{Kind: "tool.deny", Detail: toolName, run: func(ctx context.Context, c *api.Client, tag Tag, send func(Msg)) {
		send(ToolMsg{Tag: tag, Tool: toolName, Phase: ToolDeny, Result: result(c.DenyTool(ctx, proposalID, "Denied in TUI"))})
	}}
}
