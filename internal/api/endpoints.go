package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// ─── Account and catalogue ──────────────────────────────────────────────────────

// Health checks the backend. No token required.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Get("/health").Public())
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Get("/v1/auth/me"))
}

// Models lists the providers and models the backend can route to.
func (c *Client) Models(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Get("/v1/models").Public())
}

// Usage returns the current billing-period usage.
func (c *Client) Usage(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Get("/v1/usage/current"))
}

// DeviceStart begins the device authorization flow.
func (c *Client) DeviceStart(ctx context.Context, body DeviceStartRequest) (*Response, error) {
	return c.Do(ctx, Post("/v1/auth/device/start", body).Public())
}

// DevicePoll asks whether a device code has been authorized yet.
func (c *Client) DevicePoll(ctx context.Context, deviceCode string) (*Response, error) {
	return c.Do(ctx, Post("/v1/auth/device/poll", map[string]string{"deviceCode": deviceCode}).Public())
}

// DeviceStartRequest identifies this client to the device flow.
type DeviceStartRequest struct {
	ClientName    string     `json:"client_name"`
	ClientVersion string     `json:"client_version"`
	DeviceMeta    DeviceMeta `json:"device_meta"`
}

type DeviceMeta struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
}

// ─── Workspaces, threads, memory ────────────────────────────────────────────────

func (c *Client) Workspaces(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Get("/v1/workspaces"))
}

// CreateWorkspace registers a workspace rooted at an absolute path.
func (c *Client) CreateWorkspace(ctx context.Context, name, rootPath string) (*Response, error) {
	return c.Do(ctx, Post("/v1/workspaces", map[string]string{"name": name, "rootPath": rootPath}))
}

// SetWorkspacePermissions updates a member's capabilities. Only non-nil
// fields are sent.
func (c *Client) SetWorkspacePermissions(ctx context.Context, workspaceID string, body map[string]any) (*Response, error) {
	return c.Do(ctx, Post("/v1/workspaces/"+pathSegment(workspaceID)+"/permissions", body))
}

// Files lists a directory inside a workspace.
func (c *Client) Files(ctx context.Context, workspaceID, path string) (*Response, error) {
	return c.Do(ctx, Get("/v1/workspaces/"+pathSegment(workspaceID)+"/files").WithQuery("path", path))
}

// Threads lists conversation threads, scoped to a workspace when one is set.
func (c *Client) Threads(ctx context.Context, workspaceID string) (*Response, error) {
	return c.Do(ctx, Get("/v1/threads").WithQuery("workspaceId", workspaceID))
}

// ThreadMessages returns the stored transcript of one thread.
func (c *Client) ThreadMessages(ctx context.Context, threadID string) (*Response, error) {
	return c.Do(ctx, Get("/v1/chats/"+pathSegment(threadID)+"/messages"))
}

func (c *Client) Memory(ctx context.Context, limit int) (*Response, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.Do(ctx, Get("/v1/memory").WithQuery("limit", strconv.Itoa(limit)))
}

func (c *Client) MemorySettings(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Get("/v1/memory/settings"))
}

// SetMemoryEnabled toggles memory injection for the account.
func (c *Client) SetMemoryEnabled(ctx context.Context, enabled bool) (*Response, error) {
	return c.Do(ctx, Post("/v1/memory/settings", map[string]bool{"enabled": enabled}))
}

// ─── Chat ───────────────────────────────────────────────────────────────────────

// ChatMessage is one transcript entry sent to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of both the blocking and the streaming chat calls.
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	Client       string        `json:"client"`
	Provider     string        `json:"provider"`
	ToolsEnabled bool          `json:"toolsEnabled"`
	Model        string        `json:"model,omitempty"`
	WorkspaceID  string        `json:"workspaceId,omitempty"`
	ChatID       string        `json:"chatId,omitempty"`
}

// NewChatRequest fills the fixed fields of a chat body.
func NewChatRequest(messages []ChatMessage, provider, model string) ChatRequest {
	if provider == "" {
		provider = "auto"
	}
	return ChatRequest{
		Messages:     messages,
		Client:       "cli",
		Provider:     provider,
		ToolsEnabled: true,
		Model:        model,
	}
}

func (c *Client) Chat(ctx context.Context, body ChatRequest) (*Response, error) {
	return c.Do(ctx, Post("/v1/inference/chat", body))
}

// ChatStream posts body to the streaming endpoint and hands each event to fn.
func (c *Client) ChatStream(ctx context.Context, body ChatRequest, fn func(Event) error) error {
	return c.Stream(ctx, Post("/v1/inference/chat/stream", body), fn)
}

// CancelChat asks the server to stop generating for chatID. It does not abort
// the local stream; the server ends it.
func (c *Client) CancelChat(ctx context.Context, chatID string) (*Response, error) {
	return c.Do(ctx, Post("/v1/chats/"+pathSegment(chatID)+"/cancel", nil))
}

// ─── Tools ──────────────────────────────────────────────────────────────────────

// ProposeTool asks the server to run toolName. Safe tools execute at once;
// others come back with requiresConfirmation and a proposalId.
func (c *Client) ProposeTool(ctx context.Context, workspaceID, toolName string, input any) (*Response, error) {
	if input == nil {
		input = map[string]any{}
	}
	return c.Do(ctx, Post("/v1/tools/propose", map[string]any{
		"workspaceId": workspaceID,
		"toolName":    toolName,
		"input":       input,
	}))
}

func (c *Client) CommitTool(ctx context.Context, proposalID string) (*Response, error) {
	return c.Do(ctx, Post("/v1/tools/commit", map[string]string{"proposalId": proposalID}))
}

// DenyTool rejects a proposal. An empty reason is omitted.
func (c *Client) DenyTool(ctx context.Context, proposalID, reason string) (*Response, error) {
	body := map[string]string{"proposalId": proposalID}
	if r := strings.TrimSpace(reason); r != "" {
		body["reason"] = r
	}
	return c.Do(ctx, Post("/v1/tools/deny", body))
}

func (c *Client) ToolRuns(ctx context.Context, workspaceID, tool string, limit int) (*Response, error) {
	req := Get("/v1/tools/runs").WithQuery("workspaceId", workspaceID).WithQuery("tool", tool)
	if limit > 0 {
		req = req.WithQuery("limit", strconv.Itoa(limit))
	}
	return c.Do(ctx, req)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────────

// TaskFilter narrows ListTasks. Zero values are not sent.
type TaskFilter struct {
	Status   string
	Priority *int
	ParentID string
	ChatID   string
	Limit    int
	Page     int
}

func (f TaskFilter) apply(req Request) Request {
	req = req.WithQuery("status", f.Status).
		WithQuery("parentId", f.ParentID).
		WithQuery("chatId", f.ChatID)
	if f.Priority != nil {
		req = req.WithQuery("priority", strconv.Itoa(*f.Priority))
	}
	if f.Limit > 0 {
		req = req.WithQuery("limit", strconv.Itoa(f.Limit))
	}
	if f.Page > 0 {
		req = req.WithQuery("page", strconv.Itoa(f.Page))
	}
	return req
}

func (c *Client) CreateTask(ctx context.Context, body map[string]any) (*Response, error) {
	return c.Do(ctx, Post("/v1/tasks", body))
}

func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) (*Response, error) {
	return c.Do(ctx, filter.apply(Get("/v1/tasks")))
}

func (c *Client) GetTask(ctx context.Context, id string) (*Response, error) {
	return c.Do(ctx, Get(taskPath(id)))
}

// UpdateTask replaces the task's mutable fields.
func (c *Client) UpdateTask(ctx context.Context, id string, body map[string]any) (*Response, error) {
	return c.Do(ctx, Put(taskPath(id), body))
}

// PatchTask changes only the fields present in body.
func (c *Client) PatchTask(ctx context.Context, id string, body map[string]any) (*Response, error) {
	return c.Do(ctx, Patch(taskPath(id), body))
}

func (c *Client) DeleteTask(ctx context.Context, id string) (*Response, error) {
	return c.Do(ctx, Delete(taskPath(id)))
}

// TaskAction posts a lifecycle transition: "start", "complete" or "cancel".
func (c *Client) TaskAction(ctx context.Context, id, action string) (*Response, error) {
	return c.Do(ctx, Post(taskPath(id)+"/"+action, nil))
}

func (c *Client) StartTask(ctx context.Context, id string) (*Response, error) {
	return c.TaskAction(ctx, id, "start")
}

func (c *Client) CompleteTask(ctx context.Context, id string) (*Response, error) {
	return c.TaskAction(ctx, id, "complete")
}

func (c *Client) CancelTask(ctx context.Context, id string) (*Response, error) {
	return c.TaskAction(ctx, id, "cancel")
}

func (c *Client) AddTaskDependencies(ctx context.Context, id string, deps []string) (*Response, error) {
	return c.Do(ctx, Post(taskPath(id)+"/dependencies", map[string][]string{"dependencies": deps}))
}

func taskPath(id string) string {
	return "/v1/tasks/" + pathSegment(id)
}

func pathSegment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}
