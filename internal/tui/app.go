package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dhanuzh/starbott/internal/api"
)

const (
	welcomeMessage = "Starbot TUI. Enter to send. F2 models. F3 workspace. F1 help. Esc quit."
	pageStep       = 5
	maxActivity    = 8

	fastPoll = 50 * time.Millisecond
	idlePoll = 250 * time.Millisecond
)

// WorkspaceStore persists the selected workspace for a profile.
type WorkspaceStore interface {
	SaveWorkspace(profile, workspaceID string) error
}

// Options seeds a new App.
type Options struct {
	Profile      string
	APIURL       string
	WorkspaceID  string
	TokenPresent bool
	Provider     string
	Model        string
	Stream       bool
	WorkingDir   string
	Store        WorkspaceStore

	// HistoryFile persists sent prompts. Empty keeps history in memory.
	HistoryFile string
}

// textPrompt is the free-text modal opened by an "input" choice.
type textPrompt struct {
	prompt string
	input  lineEditor
}

// App is the whole application state. It is owned by the render loop: key
// presses and drained messages mutate it through HandleKey and Apply, and
// both return the background jobs the caller must spawn.
type App struct {
	mode Mode
	quit bool

	// Session
	profile      string
	apiURL       string
	tokenPresent bool
	stream       bool
	workingDir   string
	store        WorkspaceStore

	// Transcript
	messages []Message
	input    lineEditor
	history  *promptHistory
	waiting  bool
	bgTasks  int
	scroll   int // lines from bottom

	// Status and debug
	status        string
	streamStatus  string
	lastRequestID string
	lastElapsed   time.Duration
	lastProvider  string
	lastModel     string
	lastUsage     string
	lane          string
	vertexOK      *bool
	activity      []string
	showDebug     bool
	lastJob       string

	// Models
	models   []ModelOption
	modelSel int
	provider string
	modelID  string

	// Workspaces
	workspaces    []WorkspaceOption
	workspaceSel  int
	workspaceID   string
	workspaceName string
	pendingRetry  bool

	// Threads
	threads     []ThreadOption
	threadSel   int
	threadID    string
	threadTitle string

	// Memory
	memoryItems    []MemoryItem
	memorySel      int
	memorySettings MemorySettings

	// Modals
	choice      *ChoicePrompt
	choiceSel   int
	prompt      *textPrompt
	pendingTool *PendingTool
	toolHistory []ToolDecision

	// File browser
	filesPath string
	files     []FileNode
	fileSel   int
}

// NewApp builds the initial state and the startup jobs (models and health,
// plus workspaces when a token is configured).
func NewApp(opts Options) (*App, []Job) {
	provider := opts.Provider
	if provider == "" {
		provider = "auto"
	}
	a := &App{
		mode:           ModeChat,
		profile:        opts.Profile,
		apiURL:         opts.APIURL,
		tokenPresent:   opts.TokenPresent,
		stream:         opts.Stream,
		workingDir:     opts.WorkingDir,
		store:          opts.Store,
		status:         "Loading models...",
		models:         DefaultModelOptions(),
		provider:       provider,
		modelID:        opts.Model,
		workspaceSel:   -1,
		workspaceID:    strings.TrimSpace(opts.WorkspaceID),
		threadSel:      -1,
		memorySel:      -1,
		memorySettings: DefaultMemorySettings(),
		fileSel:        -1,
		history:        newPromptHistory(opts.HistoryFile),
	}
	if a.workingDir == "" {
		a.workingDir = "."
	}
	a.modelSel = max(findModelIndex(a.models, a.provider, a.modelID), 0)
	a.pushSystem(welcomeMessage)

	jobs := []Job{fetchModels(), fetchHealth()}
	a.bgTasks += 2
	if a.tokenPresent {
		jobs = append(jobs, fetchWorkspaces())
		a.bgTasks++
	}
	return a, jobs
}

// ─── Accessors ──────────────────────────────────────────────────────────────────

func (a *App) Mode() Mode             { return a.mode }
func (a *App) ShouldQuit() bool       { return a.quit }
func (a *App) Status() string         { return a.status }
func (a *App) Waiting() bool          { return a.waiting }
func (a *App) BackgroundTasks() int   { return a.bgTasks }
func (a *App) Messages() []Message    { return a.messages }
func (a *App) WorkspaceID() string    { return a.workspaceID }
func (a *App) ActiveThreadID() string { return a.threadID }

// Busy reports whether anything is in flight or animating.
func (a *App) Busy() bool {
	return a.waiting || a.bgTasks > 0 || a.mode.animated()
}

// PollInterval is the drain cadence: fast while busy, relaxed when idle.
func (a *App) PollInterval() time.Duration {
	if a.Busy() {
		return fastPoll
	}
	return idlePoll
}

// LastReply returns the newest completed assistant message.
func (a *App) LastReply() (string, bool) {
	for i := len(a.messages) - 1; i >= 0; i-- {
		m := a.messages[i]
		if m.Role == RoleAssistant && m.Sendable {
			return m.Content, true
		}
	}
	return "", false
}

// ─── Transcript helpers ─────────────────────────────────────────────────────────

func (a *App) push(role Role, content string, sendable bool) {
	a.messages = append(a.messages, Message{Role: role, Content: content, Sendable: sendable})
	a.scroll = 0
}

func (a *App) pushSystem(content string) { a.push(RoleSystem, content, false) }

// removeTypingPlaceholder drops a trailing pending assistant message.
func (a *App) removeTypingPlaceholder() {
	if n := len(a.messages); n > 0 && a.messages[n-1].pending() {
		a.messages = a.messages[:n-1]
	}
}

func (a *App) pushActivity(line string) {
	a.activity = append(a.activity, line)
	if len(a.activity) > maxActivity {
		a.activity = a.activity[len(a.activity)-maxActivity:]
	}
}

func (a *App) doneTask() {
	if a.bgTasks > 0 {
		a.bgTasks--
	}
}

// ─── Selection ──────────────────────────────────────────────────────────────────

// moveSelection moves *sel by delta, clamped to [0, n). An empty list clears it.
func moveSelection(sel *int, delta, n int) {
	if n == 0 {
		*sel = -1
		return
	}
	next := max(*sel, 0) + delta
	*sel = min(max(next, 0), n-1)
}

// moveSelectionWrap is moveSelection that wraps past either end.
func moveSelectionWrap(sel *int, delta, n int) {
	if n == 0 {
		*sel = -1
		return
	}
	next := max(*sel, 0) + delta
	switch {
	case next < 0:
		next = n - 1
	case next >= n:
		next = 0
	}
	*sel = next
}

// ─── Chat ───────────────────────────────────────────────────────────────────────

// chatBody builds the request from the sendable transcript.
func (a *App) chatBody() api.ChatRequest {
	var msgs []api.ChatMessage
	for _, m := range a.messages {
		if m.Sendable {
			msgs = append(msgs, api.ChatMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	body := api.NewChatRequest(msgs, a.provider, a.modelID)
	body.WorkspaceID = a.workspaceID
	body.ChatID = a.threadID
	return body
}

func (a *App) chatJob() Job {
	a.waiting = true
	a.streamStatus = ""
	a.status = "Sending..."
	if a.stream {
		return chatStream(a.chatBody())
	}
	return chatRequest(a.chatBody())
}

// sendChatText pushes text as a user turn and starts a reply.
func (a *App) sendChatText(text string) []Job {
	if a.waiting {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	a.push(RoleUser, text, true)
	a.push(RoleAssistant, typingPlaceholder, false)
	a.input.Reset()
	return []Job{a.chatJob()}
}

// retryLastChat resends the transcript after a workspace was picked.
func (a *App) retryLastChat() []Job {
	if a.waiting {
		return nil
	}
	hasUser := false
	for _, m := range a.messages {
		if m.Role == RoleUser && m.Sendable {
			hasUser = true
			break
		}
	}
	if !hasUser {
		return nil
	}
	a.push(RoleAssistant, typingPlaceholder, false)
	return []Job{a.chatJob()}
}

// applyWorkspaceSelection switches workspace and forgets the thread of the
// previous one. The choice is persisted through the store.
func (a *App) applyWorkspaceSelection(id, nameHint string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	a.workspaceID = id
	a.workspaceName = strings.TrimSpace(nameHint)
	for i, w := range a.workspaces {
		if w.ID == id {
			a.workspaceSel = i
			if a.workspaceName == "" {
				a.workspaceName = w.Name
			}
			break
		}
	}

	a.threads = nil
	a.threadSel = -1
	a.threadID = ""
	a.threadTitle = ""

	if a.store == nil {
		return
	}
	if err := a.store.SaveWorkspace(a.profile, id); err != nil {
		a.pushSystem(fmt.Sprintf("Failed saving workspace selection: %v", err))
	}
}

// ─── Keys ───────────────────────────────────────────────────────────────────────

// HandleKey applies one key press.
func (a *App) HandleKey(msg tea.KeyMsg) []Job {
	key := msg.String()
	if key == "f2" {
		a.choice = nil
		a.prompt = nil
		a.pendingTool = nil
		a.mode = ModeModelPicker
		return nil
	}

	switch a.mode {
	case ModeHelp:
		if key == "esc" || key == "enter" || key == "q" {
			a.mode = ModeChat
		}
		return nil
	case ModeToolApproval:
		return a.toolApprovalKey(key)
	case ModeModelPicker:
		return a.modelPickerKey(key)
	case ModeWorkspacePicker:
		return a.workspacePickerKey(key)
	case ModeThreadPicker:
		return a.threadPickerKey(key)
	case ModeMemoryPanel:
		return a.memoryPanelKey(key)
	case ModeChoiceModal:
		return a.choiceKey(key)
	case ModeTextPrompt:
		return a.textPromptKey(key, msg)
	case ModeFileBrowser:
		return a.fileBrowserKey(key)
	}
	return a.chatKey(key, msg)
}

func keyRunes(msg tea.KeyMsg) []rune {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		return msg.Runes
	case tea.KeySpace:
		return []rune{' '}
	}
	return nil
}

func (a *App) toolApprovalKey(key string) []Job {
	var approved bool
	switch key {
	case "y", "Y", "enter":
		approved = true
	case "n", "N", "esc":
	default:
		return nil
	}
	a.mode = ModeChat
	tool := a.pendingTool
	a.pendingTool = nil
	if tool == nil {
		return nil
	}
	a.toolHistory = append(a.toolHistory, ToolDecision{ToolName: tool.ToolName, Approved: approved})
	a.bgTasks++
	if approved {
		a.pushSystem("Approved tool: " + tool.ToolName)
		a.status = "Tool approved: " + tool.ToolName
		return []Job{commitTool(tool.ToolName, tool.ProposalID)}
	}
	a.pushSystem("Denied tool: " + tool.ToolName)
	a.status = "Tool denied: " + tool.ToolName
	return []Job{denyTool(tool.ToolName, tool.ProposalID)}
}

func (a *App) modelPickerKey(key string) []Job {
	switch key {
	case "esc":
		a.mode = ModeChat
	case "up":
		moveSelection(&a.modelSel, -1, len(a.models))
	case "down":
		moveSelection(&a.modelSel, 1, len(a.models))
	case "pgup":
		moveSelection(&a.modelSel, -pageStep, len(a.models))
	case "pgdown":
		moveSelection(&a.modelSel, pageStep, len(a.models))
	case "ctrl+r":
		a.status = "Reloading models..."
		a.bgTasks++
		return []Job{fetchModels()}
	case "enter":
		if a.modelSel >= 0 && a.modelSel < len(a.models) {
			opt := a.models[a.modelSel]
			a.provider = opt.Provider
			a.modelID = opt.Model
			if a.provider == "auto" {
				a.status = "Selected auto"
			} else {
				a.status = "Selected " + a.provider
			}
		}
		a.mode = ModeChat
	}
	return nil
}

func (a *App) workspacePickerKey(key string) []Job {
	switch key {
	case "esc":
		a.pendingRetry = false
		a.mode = ModeChat
	case "up":
		moveSelection(&a.workspaceSel, -1, len(a.workspaces))
	case "down":
		moveSelection(&a.workspaceSel, 1, len(a.workspaces))
	case "pgup":
		moveSelection(&a.workspaceSel, -pageStep, len(a.workspaces))
	case "pgdown":
		moveSelection(&a.workspaceSel, pageStep, len(a.workspaces))
	case "ctrl+r":
		if !a.tokenPresent {
			a.status = api.MissingTokenMessage
			return nil
		}
		a.status = "Reloading workspaces..."
		a.bgTasks++
		return []Job{fetchWorkspaces()}
	case "enter":
		if a.workspaceSel < 0 || a.workspaceSel >= len(a.workspaces) {
			a.status = "No workspace selected."
			return nil
		}
		ws := a.workspaces[a.workspaceSel]
		if ws.ID == "" {
			a.status = "No workspace selected."
			return nil
		}
		if ws.Archived {
			a.status = "Workspace is archived: " + ws.Name
			return nil
		}
		a.applyWorkspaceSelection(ws.ID, ws.Name)
		a.status = "Workspace: " + a.workspaceName
		a.mode = ModeChat
		if a.pendingRetry {
			a.pendingRetry = false
			return a.retryLastChat()
		}
	}
	return nil
}

func (a *App) threadPickerKey(key string) []Job {
	switch key {
	case "esc":
		a.mode = ModeChat
	case "up":
		moveSelection(&a.threadSel, -1, len(a.threads))
	case "down":
		moveSelection(&a.threadSel, 1, len(a.threads))
	case "pgup":
		moveSelection(&a.threadSel, -pageStep, len(a.threads))
	case "pgdown":
		moveSelection(&a.threadSel, pageStep, len(a.threads))
	case "ctrl+r":
		a.status = "Reloading threads..."
		a.bgTasks++
		return []Job{fetchThreads(a.workspaceID)}
	case "enter":
		a.mode = ModeChat
		if a.threadSel < 0 || a.threadSel >= len(a.threads) {
			return nil
		}
		t := a.threads[a.threadSel]
		a.threadID = t.ID
		a.threadTitle = t.Title
		a.status = "Switched to thread: " + t.Title
		a.messages = nil
		a.bgTasks++
		return []Job{fetchThreadMessages(t.ID)}
	}
	return nil
}

func (a *App) memoryPanelKey(key string) []Job {
	switch key {
	case "esc", "enter":
		a.mode = ModeChat
	case "up":
		moveSelection(&a.memorySel, -1, len(a.memoryItems))
	case "down":
		moveSelection(&a.memorySel, 1, len(a.memoryItems))
	case "pgup":
		moveSelection(&a.memorySel, -pageStep, len(a.memoryItems))
	case "pgdown":
		moveSelection(&a.memorySel, pageStep, len(a.memoryItems))
	case "m", "ctrl+t":
		enable := !a.memorySettings.Enabled
		if enable {
			a.status = "Toggling memory ON..."
		} else {
			a.status = "Toggling memory OFF..."
		}
		a.bgTasks++
		return []Job{toggleMemory(enable)}
	case "ctrl+r":
		a.status = "Refreshing memory..."
		a.bgTasks += 2
		return []Job{fetchMemory(), fetchMemorySettings()}
	}
	return nil
}

func (a *App) choiceKey(key string) []Job {
	if a.choice == nil {
		a.mode = ModeChat
		return nil
	}
	n := len(a.choice.Options)
	switch key {
	case "esc":
		a.choice = nil
		a.mode = ModeChat
		a.status = "Choice cancelled"
	case "tab", "down", "j":
		moveSelectionWrap(&a.choiceSel, 1, n)
	case "shift+tab", "up", "k":
		moveSelectionWrap(&a.choiceSel, -1, n)
	case "pgup":
		moveSelection(&a.choiceSel, -pageStep, n)
	case "pgdown":
		moveSelection(&a.choiceSel, pageStep, n)
	case "enter":
		if a.choiceSel < 0 || a.choiceSel >= n {
			return nil
		}
		opt := a.choice.Options[a.choiceSel]
		a.choice = nil
		a.mode = ModeChat
		return a.runChoice(opt)
	}
	return nil
}

// runChoice executes the action of a picked choice option.
func (a *App) runChoice(opt ChoiceOption) []Job {
	act := opt.Action
	switch act.Type {
	case ActionSetWorkspace:
		a.applyWorkspaceSelection(act.WorkspaceID, "")
		label := a.workspaceName
		if label == "" {
			label = opt.Label
		}
		a.status = "Workspace: " + label
		if a.pendingRetry {
			a.pendingRetry = false
			return a.retryLastChat()
		}
	case ActionTool:
		if a.workspaceID == "" {
			a.pushSystem("No workspace selected. Press F3 to pick one.")
			a.status = "Workspace required."
			return nil
		}
		a.pushSystem("Running tool: " + act.ToolName)
		a.waiting = true
		a.status = "Running tool: " + act.ToolName + "..."
		a.bgTasks++
		return []Job{proposeTool(a.workspaceID, act.ToolName, act.Input)}
	case ActionInput:
		a.prompt = &textPrompt{prompt: act.Prompt}
		a.mode = ModeTextPrompt
	case ActionSendMessage:
		return a.sendChatText(act.Text)
	}
	return nil
}

func (a *App) textPromptKey(key string, msg tea.KeyMsg) []Job {
	if a.prompt == nil {
		a.mode = ModeChat
		return nil
	}
	switch key {
	case "esc":
		a.prompt = nil
		a.mode = ModeChat
	case "enter":
		value := strings.TrimSpace(a.prompt.input.String())
		if value == "" {
			return nil
		}
		text := a.prompt.prompt + "\n" + value
		a.prompt = nil
		a.mode = ModeChat
		return a.sendChatText(text)
	default:
		a.prompt.input.edit(key, keyRunes(msg))
	}
	return nil
}

func (a *App) fileBrowserKey(key string) []Job {
	switch key {
	case "esc":
		a.files = nil
		a.fileSel = -1
		a.mode = ModeChat
	case "up":
		moveSelection(&a.fileSel, -1, len(a.files))
	case "down":
		moveSelection(&a.fileSel, 1, len(a.files))
	case "pgup":
		moveSelection(&a.fileSel, -pageStep, len(a.files))
	case "pgdown":
		moveSelection(&a.fileSel, pageStep, len(a.files))
	case "enter":
		if a.fileSel < 0 || a.fileSel >= len(a.files) {
			return nil
		}
		f := a.files[a.fileSel]
		if f.IsDir {
			return a.browse(f.Path)
		}
		a.files = nil
		a.fileSel = -1
		a.mode = ModeChat
		a.input.Set("@" + f.Path + " ")
		a.status = "Opened file: " + f.Name
	case "left", "shift+tab":
		return a.browse(parentDirectory(a.filesPath))
	}
	return nil
}

func (a *App) browse(path string) []Job {
	a.filesPath = path
	a.bgTasks++
	return []Job{fetchFiles(a.workspaceID, path)}
}

// parentDirectory strips the last slash-separated component.
func parentDirectory(path string) string {
	path = strings.TrimRight(path, "/")
	i := strings.LastIndex(path, "/")
	switch {
	case i < 0:
		return "."
	case i == 0:
		return "/"
	}
	return path[:i]
}

func (a *App) missingToken(what string) {
	a.pushSystem("Missing token. Run `starbott auth login` " + what)
	a.status = "Missing token."
}

func (a *App) chatKey(key string, msg tea.KeyMsg) []Job {
	switch key {
	case "esc", "ctrl+c":
		a.quit = true
	case "f1":
		a.mode = ModeHelp
	case "f3":
		if !a.tokenPresent {
			a.missingToken("to select a workspace.")
			return nil
		}
		a.mode = ModeWorkspacePicker
		if len(a.workspaces) == 0 {
			a.status = "Loading workspaces..."
			a.bgTasks++
			return []Job{fetchWorkspaces()}
		}
	case "f4":
		if !a.tokenPresent {
			a.missingToken("to access threads.")
			return nil
		}
		a.mode = ModeThreadPicker
		if len(a.threads) == 0 {
			a.status = "Loading threads..."
			a.bgTasks++
			return []Job{fetchThreads(a.workspaceID)}
		}
	case "f5":
		if !a.tokenPresent {
			a.missingToken("to access memory.")
			return nil
		}
		a.mode = ModeMemoryPanel
		if len(a.memoryItems) == 0 {
			a.status = "Loading memory..."
			a.bgTasks += 2
			return []Job{fetchMemory(), fetchMemorySettings()}
		}
	case "f6":
		a.mode = ModeFileBrowser
		a.fileSel = -1
		return a.browse(a.workingDir)
	case "ctrl+d":
		a.showDebug = !a.showDebug
	case "ctrl+r":
		a.status = "Reloading..."
		a.bgTasks += 2
		jobs := []Job{fetchModels(), fetchHealth()}
		if a.tokenPresent {
			a.bgTasks++
			jobs = append(jobs, fetchWorkspaces())
		}
		return jobs
	case "ctrl+x":
		if !a.waiting {
			return nil
		}
		if a.threadID == "" {
			a.status = "Nothing to cancel yet: the server has not named this chat."
			return nil
		}
		a.status = "Cancelling..."
		a.bgTasks++
		return []Job{cancelChat(a.threadID)}
	case "pgup":
		a.scroll += pageStep
	case "pgdown":
		a.scroll = max(a.scroll-pageStep, 0)
	case "up":
		if s, ok := a.history.Older(); ok {
			a.input.Set(s)
		}
	case "down":
		a.input.Set(a.history.Newer())
	case "enter":
		if a.waiting {
			return nil
		}
		text := strings.TrimSpace(a.input.String())
		if text == "" {
			return nil
		}
		a.history.Append(text)
		if strings.HasPrefix(text, "/") {
			if jobs, ok := a.slashCommand(text); ok {
				return jobs
			}
		}
		return a.sendChatText(text)
	default:
		if strings.HasPrefix(key, "ctrl+") {
			return nil
		}
		a.input.edit(key, keyRunes(msg))
	}
	return nil
}

// ─── Slash commands ─────────────────────────────────────────────────────────────

// slashCommand runs a local command. ok is false for unknown commands, which
// are sent to the model as plain text.
func (a *App) slashCommand(text string) ([]Job, bool) {
	name, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "/new":
		a.messages = nil
		a.threadID = ""
		a.threadTitle = ""
		a.threadSel = -1
		a.input.Reset()
		a.pushSystem(welcomeMessage)
		a.status = "New conversation"
		return nil, true
	case "/pwd":
		a.push(RoleUser, text, true)
		a.push(RoleAssistant, fmt.Sprintf("Current working directory:\n`%s`", a.workingDir), true)
		a.status = "Reported local working directory."
		a.input.Reset()
		return nil, true
	case "/ls":
		a.push(RoleUser, text, true)
		a.push(RoleAssistant, localDirListing(a.workingDir, rest), true)
		a.status = "Listed local directory."
		a.input.Reset()
		return nil, true
	case "/help":
		a.input.Reset()
		a.mode = ModeHelp
		return nil, true
	case "/tool":
		a.input.Reset()
		return a.toolCommand(rest), true
	}
	return nil, false
}

// toolCommand handles "/tool <name> [json input]".
func (a *App) toolCommand(args string) []Job {
	name, raw, _ := strings.Cut(args, " ")
	if name == "" {
		a.pushSystem("Usage: /tool <name> [json input]")
		return nil
	}
	var input any = map[string]any{}
	if raw = strings.TrimSpace(raw); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			a.pushSystem(fmt.Sprintf("Invalid tool input: %v", err))
			a.status = "Tool input must be JSON."
			return nil
		}
	}
	return a.runChoice(ChoiceOption{Label: name, Action: ChoiceAction{Type: ActionTool, ToolName: name, Input: input}})
}

// HelpLines is the key reference shown in Help mode.
func HelpLines() []string {
	return []string{
		"Enter        send message",
		"Esc          quit (or close a popup)",
		"F2           model picker",
		"F3           workspaces",
		"F4           threads",
		"F5           memory (m toggles)",
		"F6           file browser",
		"Ctrl+R       reload",
		"↑/↓          prompt history",
		"PgUp/PgDn    scroll transcript",
		"Ctrl+D       debug panel",
		"Ctrl+Y       copy last reply",
		"Ctrl+X       cancel generation",
		"",
		"Choice:      Tab/↑↓ select • Enter choose • Esc cancel",
		"Input:       type • Enter send • Esc cancel",
		"Commands:    /new /pwd /ls [path] /tool <name> [json] /help",
	}
}
