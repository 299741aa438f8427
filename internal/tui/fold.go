package tui

import (
	"fmt"
	"strings"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
)

const noTextResponse = "(No text response)"

// Apply folds one drained message into the state. Messages are applied in
// drain order with no staleness check: when two results for the same fetch
// arrive, the one drained last wins.
func (a *App) Apply(msg Msg) []Job {
	a.lastJob = msg.JobID()
	switch m := msg.(type) {
	case ModelsMsg:
		a.applyModels(m)
	case HealthMsg:
		a.doneTask()
		a.vertexOK = nil
		if m.Err == nil {
			if ok, known := parseVertexOK(m.Resp.JSON); known {
				a.vertexOK = &ok
			}
		}
	case WorkspacesMsg:
		a.applyWorkspaces(m)
	case ThreadsMsg:
		a.applyThreads(m)
	case ThreadMessagesMsg:
		a.applyThreadMessages(m)
	case MemoryMsg:
		a.applyMemory(m)
	case MemorySettingsMsg:
		a.doneTask()
		if m.Err != nil {
			a.status = fmt.Sprintf("Failed loading memory settings: %v", m.Err)
			return nil
		}
		a.memorySettings = parseMemorySettings(m.Resp.JSON)
		state := "disabled"
		if a.memorySettings.Enabled {
			state = "enabled"
		}
		a.status = fmt.Sprintf("Memory: %s (max %d items)", state, a.memorySettings.MaxItemsInjected)
	case FilesMsg:
		a.applyFiles(m)
	case ChatResultMsg:
		return a.applyChatResult(m)
	case ChatCancelledMsg:
		a.doneTask()
		a.waiting = false
		if m.Err != nil {
			a.status = fmt.Sprintf("Failed to cancel: %v", m.Err)
		} else {
			a.status = "Generation cancelled"
		}
	case StreamStatusMsg:
		a.adoptChatID(m.ChatID)
		if m.Text != "" {
			a.streamStatus = m.Text
			a.status = "⚡ " + m.Text
		}
	case StreamTokenMsg:
		a.adoptChatID(m.ChatID)
		if n := len(a.messages); n > 0 && a.messages[n-1].pending() {
			last := &a.messages[n-1]
			if last.Content == typingPlaceholder {
				last.Content = m.Text
			} else {
				last.Content += m.Text
			}
		}
	case StreamDoneMsg:
		a.applyStreamDone(m)
	case StreamErrorMsg:
		a.waiting = false
		a.removeTypingPlaceholder()
		a.pushSystem("Streaming error: " + m.Text)
		a.status = "error: " + m.Text
	case ToolMsg:
		a.applyTool(m)
	}
	return nil
}

// adoptChatID makes an in-flight chat cancellable as soon as the server
// names it.
func (a *App) adoptChatID(id string) {
	if id != "" && a.waiting {
		a.threadID = id
	}
}

// errorStatus is the status line for a failed request. Auth failures get a
// fixed message.
func errorStatus(err error) string {
	if apierr.Is(err, apierr.KindAuth) {
		return "Authentication required."
	}
	return "error: " + err.Error()
}

// readyStatus keeps a failure visible instead of replacing it with "Ready.".
func readyStatus(current string) string {
	lower := strings.ToLower(current)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		return current
	}
	return "Ready."
}

func (a *App) applyModels(m ModelsMsg) {
	a.doneTask()
	if m.Err != nil {
		a.status = fmt.Sprintf("Failed loading models: %v", m.Err)
		return
	}
	options, ok := ParseModelOptions(m.Resp.JSON)
	switch {
	case !ok:
		a.status = "Failed parsing /v1/models response."
	case len(options) == 0:
		a.status = "No models returned by server."
	default:
		a.models = options
		a.modelSel = max(findModelIndex(options, a.provider, a.modelID), 0)
		a.status = readyStatus(a.status)
	}
}

// setWorkspaces replaces the workspace list and re-points the selection at
// the active workspace when it is still listed.
func (a *App) setWorkspaces(options []WorkspaceOption) {
	a.workspaces = options
	if a.workspaceSel < 0 || a.workspaceSel >= len(options) {
		a.workspaceSel = -1
		if len(options) > 0 {
			a.workspaceSel = 0
		}
	}
	if a.workspaceID == "" {
		return
	}
	a.workspaceName = ""
	for i, w := range options {
		if w.ID == a.workspaceID {
			a.workspaceSel = i
			a.workspaceName = w.Name
			return
		}
	}
}

func (a *App) applyWorkspaces(m WorkspacesMsg) {
	a.doneTask()
	if m.Err != nil {
		a.status = fmt.Sprintf("Failed loading workspaces: %v", m.Err)
		return
	}
	options, ok := ParseWorkspaceOptions(m.Resp.JSON)
	if !ok {
		a.status = "Failed parsing /v1/workspaces response."
		return
	}
	a.setWorkspaces(options)
}

func (a *App) applyThreads(m ThreadsMsg) {
	a.doneTask()
	if m.Err != nil {
		a.status = fmt.Sprintf("Failed loading threads: %v", m.Err)
		return
	}
	options, ok := parseThreadOptions(m.Resp.JSON)
	if !ok {
		a.status = "Failed parsing /v1/threads response."
		return
	}
	a.threads = options
	if a.threadSel < 0 || a.threadSel >= len(options) {
		a.threadSel = -1
		if len(options) > 0 {
			a.threadSel = 0
		}
	}
	if a.threadID == "" {
		return
	}
	a.threadTitle = ""
	for i, t := range options {
		if t.ID == a.threadID {
			a.threadSel = i
			a.threadTitle = t.Title
			return
		}
	}
}

func (a *App) applyThreadMessages(m ThreadMessagesMsg) {
	a.doneTask()
	// The user may have switched threads again since this was requested.
	if m.ThreadID != a.threadID {
		return
	}
	if m.Err != nil {
		a.status = fmt.Sprintf("Failed to load messages: %v", m.Err)
		return
	}
	msgs, ok := parseThreadMessages(m.Resp.JSON)
	if !ok {
		a.status = "Failed parsing thread messages response."
		return
	}
	a.messages = msgs
	a.scroll = 0
	a.status = fmt.Sprintf("Loaded %d messages", len(msgs))
}

func (a *App) applyMemory(m MemoryMsg) {
	a.doneTask()
	if m.Err != nil {
		a.status = fmt.Sprintf("Failed loading memory: %v", m.Err)
		return
	}
	items, ok := parseMemoryItems(m.Resp.JSON)
	if !ok {
		a.status = "Failed parsing /v1/memory response."
		return
	}
	a.memoryItems = items
	if a.memorySel < 0 && len(items) > 0 {
		a.memorySel = 0
	}
	if a.memorySel >= len(items) {
		a.memorySel = len(items) - 1
	}
	a.status = fmt.Sprintf("Loaded %d memory items", len(items))
}

func (a *App) applyFiles(m FilesMsg) {
	a.doneTask()
	if m.Err != nil {
		a.files = nil
		a.fileSel = -1
		a.status = fmt.Sprintf("Failed to load files: %v", m.Err)
		return
	}
	files, ok := parseFiles(m.Resp.JSON)
	if !ok {
		a.files = nil
		a.fileSel = -1
		a.status = "Failed parsing files response."
		return
	}
	a.files = files
	a.fileSel = -1
	if len(files) > 0 {
		a.fileSel = 0
	}
	a.status = fmt.Sprintf("Loaded %d files", len(files))
}

// recordCompletion stores what served a finished reply.
func (a *App) recordCompletion(payload map[string]any) {
	provider, model := api.ExtractProviderModel(payload)
	a.lastProvider = provider
	a.lastModel = model
	if provider == "" {
		provider = "-"
	}
	if model == "" {
		model = "-"
	}
	a.pushActivity(fmt.Sprintf("Completed: %s via %s", model, provider))
	a.lastUsage = api.UsageLine(payload)
	if lane := parseTriageLane(payload); lane != "" {
		a.lane = lane
	}
	a.status = "ok"
}

// recordThread makes the chat a reply belongs to the active thread, updating
// or inserting its picker entry.
func (a *App) recordThread(payload map[string]any) {
	chat := api.ObjectField(payload, "chat")
	id := firstString(payload, "chatId")
	if id == "" {
		id = api.StringField(chat, "id")
	}
	title := firstString(payload, "chatTitle")
	if title == "" {
		title = api.StringField(chat, "title")
	}
	updated := api.StringField(chat, "updatedAt")

	if id != "" {
		a.threadID = id
		idx := -1
		for i := range a.threads {
			if a.threads[i].ID == id {
				idx = i
				break
			}
		}
		if idx >= 0 {
			t := &a.threads[idx]
			if title != "" {
				t.Title = title
			}
			if updated != "" {
				t.LastMessageAt = updated
			}
			t.MessageCount++
		} else {
			entry := ThreadOption{ID: id, Title: title, LastMessageAt: updated, MessageCount: 1}
			if entry.Title == "" {
				entry.Title = "Current Chat"
			}
			a.threads = append([]ThreadOption{entry}, a.threads...)
			idx = 0
		}
		a.threadSel = idx
	}
	if title != "" {
		a.threadTitle = title
	}
}

func (a *App) applyChatResult(m ChatResultMsg) []Job {
	a.waiting = false
	a.removeTypingPlaceholder()
	if m.Err != nil {
		a.pushSystem(fmt.Sprintf("Error: %v", m.Err))
		a.status = errorStatus(m.Err)
		return nil
	}

	payload := m.Resp.JSON
	a.lastRequestID = m.Resp.RequestID
	a.lastElapsed = m.Resp.Elapsed

	needWorkspace := boolField(payload, "needWorkspace", false)
	choice := parseChoicePrompt(payload)

	if needWorkspace && choice == nil {
		var jobs []Job
		if options, ok := ParseWorkspaceOptions(payload); ok {
			a.setWorkspaces(options)
		} else if a.tokenPresent {
			a.bgTasks++
			jobs = append(jobs, fetchWorkspaces())
		}
		reply, ok := api.ExtractReply(payload)
		if !ok || strings.TrimSpace(reply) == "" {
			reply = "Pick a workspace to use, then retry your request."
		}
		a.pushSystem(reply)
		a.pendingRetry = true
		a.mode = ModeWorkspacePicker
		a.status = "Workspace required. Select one (F3)."
		return jobs
	}

	for _, text := range formatAutoTools(payload) {
		a.pushSystem(text)
	}

	reply, ok := api.ExtractReply(payload)
	if !ok {
		reply = noTextResponse
	}
	a.push(RoleAssistant, reply, true)
	a.recordThread(payload)
	a.recordCompletion(payload)

	if choice != nil {
		hint := choice.Hint
		if strings.TrimSpace(hint) == "" {
			hint = defaultChoiceHint
		}
		a.pushSystem(fmt.Sprintf("Choice: %s\n%s", choice.Title, hint))
		a.choice = choice
		a.choiceSel = 0
		a.mode = ModeChoiceModal
		a.status = "Choice prompt"
		if needWorkspace || api.StringField(payload, "error") == "NO_WORKSPACE_SELECTED" {
			a.pendingRetry = true
		}
	}
	return nil
}

func (a *App) applyStreamDone(m StreamDoneMsg) {
	a.waiting = false
	if n := len(a.messages); n > 0 && a.messages[n-1].pending() {
		last := &a.messages[n-1]
		last.Sendable = true
		if last.Content == typingPlaceholder {
			last.Content = noTextResponse
			if s, _ := m.Meta["content"].(string); s != "" {
				last.Content = s
			} else if s, ok := api.ExtractReply(m.Meta); ok && s != "" {
				last.Content = s
			}
		}
	}
	a.recordThread(m.Meta)
	a.recordCompletion(m.Meta)
}

func (a *App) applyTool(m ToolMsg) {
	a.doneTask()
	a.waiting = false
	if m.Err != nil {
		a.pushSystem(fmt.Sprintf("Tool error (%s): %v", m.Tool, m.Err))
		a.status = "Tool failed: " + m.Tool
		return
	}

	payload := m.Resp.JSON
	switch m.Phase {
	case ToolCommit:
		a.push(RoleSystem, formatToolProposal(m.Tool, payload), true)
		a.status = "Tool completed: " + m.Tool
		return
	case ToolDeny:
		a.status = "Tool denied: " + m.Tool
		return
	}

	a.push(RoleSystem, formatToolProposal(m.Tool, payload), true)
	a.status = "Tool completed: " + m.Tool

	proposalID := api.StringField(payload, "proposalId")
	if boolField(payload, "requiresConfirmation", false) && proposalID != "" {
		preview, _ := truncateChars(prettyJSON(payload["preview"]), maxToolOutputChars)
		var targets []string
		for _, f := range api.ArrayField(payload, "targetFiles") {
			if s, ok := f.(string); ok {
				targets = append(targets, s)
			}
		}
		a.pendingTool = &PendingTool{
			ToolName:    m.Tool,
			ProposalID:  proposalID,
			TargetFiles: targets,
			Preview:     preview,
		}
		a.mode = ModeToolApproval
		a.status = "Approve tool? " + m.Tool + " (y/n)"
	}
}
