package tui

// ─── Modes ──────────────────────────────────────────────────────────────────────

// Mode is the focused screen. Exactly one is active; quitting is tracked
// separately on App.
type Mode int

const (
	ModeChat Mode = iota
	ModeModelPicker
	ModeWorkspacePicker
	ModeThreadPicker
	ModeMemoryPanel
	ModeChoiceModal
	ModeTextPrompt
	ModeHelp
	ModeToolApproval
	ModeFileBrowser
)

func (m Mode) String() string {
	switch m {
	case ModeChat:
		return "chat"
	case ModeModelPicker:
		return "models"
	case ModeWorkspacePicker:
		return "workspaces"
	case ModeThreadPicker:
		return "threads"
	case ModeMemoryPanel:
		return "memory"
	case ModeChoiceModal:
		return "choice"
	case ModeTextPrompt:
		return "input"
	case ModeHelp:
		return "help"
	case ModeToolApproval:
		return "tool"
	case ModeFileBrowser:
		return "files"
	default:
		return "unknown"
	}
}

// animated modes keep the fast poll cadence.
func (m Mode) animated() bool {
	return m != ModeChat && m != ModeHelp
}

// ─── Transcript ─────────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. Only Sendable messages go back to the
// model; a non-sendable assistant message is a pending reply placeholder.
type Message struct {
	Role     Role
	Content  string
	Sendable bool
}

func (m Message) pending() bool {
	return m.Role == RoleAssistant && !m.Sendable
}

// typingPlaceholder is shown until the first token arrives.
const typingPlaceholder = "…"

// ─── Picker items ───────────────────────────────────────────────────────────────

type ModelOption struct {
	Provider string
	Model    string
	Label    string
}

type WorkspaceOption struct {
	ID         string
	Name       string
	RootPath   string
	Archived   bool
	LastUsedAt string
}

type ThreadOption struct {
	ID            string
	Title         string
	Mode          string
	LastMessageAt string
	Pinned        bool
	MessageCount  int
}

type MemoryItem struct {
	ID         string
	Scope      string
	ProjectID  string
	Type       string
	Content    string
	Tags       []string
	Salience   float64
	Confidence float64
	Source     string
	Enabled    bool
	CreatedAt  string
	UpdatedAt  string
}

type MemorySettings struct {
	Enabled          bool
	AllowAutoCapture bool
	MaxContextTokens int
	MaxItemsInjected int
	IncludeGlobal    bool
	IncludeProject   bool
}

// DefaultMemorySettings mirrors the server defaults.
func DefaultMemorySettings() MemorySettings {
	return MemorySettings{
		Enabled:          true,
		AllowAutoCapture: true,
		MaxContextTokens: 600,
		MaxItemsInjected: 12,
		IncludeGlobal:    true,
		IncludeProject:   true,
	}
}

type FileNode struct {
	Name         string
	Path         string
	IsDir        bool
	Size         int64 // -1 when unknown
	LastModified string
}

// ─── Choice prompt ──────────────────────────────────────────────────────────────

type ChoiceActionType string

const (
	ActionSetWorkspace ChoiceActionType = "set_workspace"
	ActionTool         ChoiceActionType = "tool"
	ActionInput        ChoiceActionType = "input"
	ActionSendMessage  ChoiceActionType = "send_message"
)

// ChoiceAction is what a choice option does when picked. Only the fields of
// its Type are set.
type ChoiceAction struct {
	Type        ChoiceActionType
	WorkspaceID string
	ToolName    string
	Input       any
	Prompt      string
	Text        string
}

type ChoiceOption struct {
	ID          string
	Label       string
	Description string
	Action      ChoiceAction
}

type ChoicePrompt struct {
	ID                string
	Title             string
	Hint              string
	AllowCustom       bool
	CustomPlaceholder string
	Options           []ChoiceOption
}

const defaultChoiceHint = "Tab/↑↓ select • Enter choose • Esc cancel"

// ─── Tool approval ──────────────────────────────────────────────────────────────

type PendingTool struct {
	ToolName    string
	ProposalID  string
	TargetFiles []string
	Preview     string
}

type ToolDecision struct {
	ToolName string
	Approved bool
}

// ─── Line editor ────────────────────────────────────────────────────────────────

// lineEditor is a single-line rune buffer with a cursor.
type lineEditor struct {
	buf    []rune
	cursor int
}

func (e *lineEditor) String() string { return string(e.buf) }
func (e *lineEditor) Len() int       { return len(e.buf) }

func (e *lineEditor) Reset() {
	e.buf = e.buf[:0]
	e.cursor = 0
}

func (e *lineEditor) Set(s string) {
	e.buf = []rune(s)
	e.cursor = len(e.buf)
}

func (e *lineEditor) Insert(rs ...rune) {
	if e.cursor > len(e.buf) {
		e.cursor = len(e.buf)
	}
	tail := append([]rune(nil), e.buf[e.cursor:]...)
	e.buf = append(append(e.buf[:e.cursor], rs...), tail...)
	e.cursor += len(rs)
}

func (e *lineEditor) Backspace() {
	if e.cursor > 0 && e.cursor <= len(e.buf) {
		e.cursor--
		e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+1:]...)
	}
}

func (e *lineEditor) Left() {
	if e.cursor > 0 {
		e.cursor--
	}
}

func (e *lineEditor) Right() {
	if e.cursor < len(e.buf) {
		e.cursor++
	}
}

func (e *lineEditor) Home() { e.cursor = 0 }
func (e *lineEditor) End()  { e.cursor = len(e.buf) }

// edit applies a cursor or editing key and reports whether it was one.
func (e *lineEditor) edit(key string, runes []rune) bool {
	switch key {
	case "backspace":
		e.Backspace()
	case "left":
		e.Left()
	case "right":
		e.Right()
	case "home":
		e.Home()
	case "end":
		e.End()
	default:
		if len(runes) == 0 {
			return false
		}
		e.Insert(runes...)
	}
	return true
}
