package tui

import "github.com/Dhanuzh/starbott/internal/api"

// Msg is a background outcome delivered through the Inbox. The set of
// variants is closed; App.Apply ignores anything it does not know.
type Msg interface {
	JobID() string
}

// Tag identifies the job that produced a message. Every job gets a fresh
// ULID, so ids sort in dispatch order.
type Tag struct {
	Job string
}

func (t Tag) JobID() string { return t.Job }

// Result is the outcome of one API call: a response or a typed error.
type Result struct {
	Resp *api.Response
	Err  error
}

// ─── Fetch results ──────────────────────────────────────────────────────────────

type ModelsMsg struct {
	Tag
	Result
}

type HealthMsg struct {
	Tag
	Result
}

type WorkspacesMsg struct {
	Tag
	Result
}

type ThreadsMsg struct {
	Tag
	Result
}

type ThreadMessagesMsg struct {
	Tag
	ThreadID string
	Result
}

type MemoryMsg struct {
	Tag
	Result
}

type MemorySettingsMsg struct {
	Tag
	Result
}

type FilesMsg struct {
	Tag
	Path string
	Result
}

// ─── Chat ───────────────────────────────────────────────────────────────────────

// ChatResultMsg is the reply of a non-streaming chat request.
type ChatResultMsg struct {
	Tag
	Result
}

type ChatCancelledMsg struct {
	Tag
	Result
}

// StreamStatusMsg and StreamTokenMsg carry ChatID when the event names the
// chat being generated, so a first reply can be cancelled before it finishes.
type StreamStatusMsg struct {
	Tag
	Text   string
	ChatID string
}

type StreamTokenMsg struct {
	Tag
	Text   string
	ChatID string
}

// StreamDoneMsg carries the final event's payload (chat id, title, provider,
// model, usage). Meta is empty when the server closed the stream without one.
type StreamDoneMsg struct {
	Tag
	Meta map[string]any
}

type StreamErrorMsg struct {
	Tag
	Text string
}

// ─── Tools ──────────────────────────────────────────────────────────────────────

type ToolPhase int

const (
	ToolPropose ToolPhase = iota
	ToolCommit
	ToolDeny
)

type ToolMsg struct {
	Tag
	Tool  string
	Phase ToolPhase
	Result
}
