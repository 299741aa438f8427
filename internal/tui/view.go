package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// chatKeys drive the footer hints.
var chatKeys = []key.Binding{
	key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "help")),
	key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "models")),
	key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "workspace")),
	key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "threads")),
	key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "memory")),
	key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "files")),
	key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit")),
}

var pickerKeys = []key.Binding{
	key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
	key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
}

const (
	headerHeight = 2
	inputHeight  = 2
	footerHeight = 3
	debugHeight  = 4
)

// ─── Layout ─────────────────────────────────────────────────────────────────────

func (m Model) transcriptHeight() int {
	h := m.height - headerHeight - inputHeight - footerHeight
	if m.app.showDebug {
		h -= debugHeight
	}
	return max(h, 3)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Starting..."
	}
	base := m.renderChat()
	if dialog := m.renderDialog(); dialog != "" {
		return m.renderOverlay(base, dialog)
	}
	return base
}

func (m Model) renderChat() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderViewportWithScrollbar())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	if m.app.showDebug {
		b.WriteString("\n")
		b.WriteString(m.renderDebug())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderOverlay centers dialog over base, line by line.
func (m Model) renderOverlay(base, dialog string) string {
	bgLines := strings.Split(base, "\n")
	dlgLines := strings.Split(dialog, "\n")

	startY := max((m.height-len(dlgLines))/2, 1)
	maxW := 0
	for _, l := range dlgLines {
		maxW = max(maxW, lipgloss.Width(l))
	}
	startX := max((m.width-maxW)/2, 0)

	for len(bgLines) < startY+len(dlgLines) {
		bgLines = append(bgLines, "")
	}
	for i := range dlgLines {
		bgLines[startY+i] = strings.Repeat(" ", startX) + dlgLines[i]
	}
	return strings.Join(bgLines, "\n")
}

// ─── Header / footer ────────────────────────────────────────────────────────────

func (m Model) renderHeader() string {
	t := m.theme
	a := m.app

	titleSt := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	provSt := lipgloss.NewStyle().Foreground(t.Background).Background(t.Success).Padding(0, 1)
	modSt := lipgloss.NewStyle().Foreground(t.Background).Background(t.Primary).Padding(0, 1)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted)

	model := a.modelID
	if model == "" {
		model = "default"
	}
	parts := []string{titleSt.Render(" Starbot "), " ", provSt.Render(a.provider), " ", modSt.Render(model)}

	ws := a.workspaceName
	if ws == "" {
		ws = a.workspaceID
	}
	if ws != "" {
		parts = append(parts, " ", dim.Render("ws:"+ws))
	}
	if a.threadTitle != "" {
		parts = append(parts, " ", dim.Render("thread:"+a.threadTitle))
	}
	if a.memorySettings.Enabled {
		parts = append(parts, " ", lipgloss.NewStyle().Foreground(t.Accent).Render("mem"))
	}
	if a.vertexOK != nil && !*a.vertexOK {
		parts = append(parts, " ", lipgloss.NewStyle().Foreground(t.Warning).Render("vertex down"))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	sep := lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", m.width))
	return line + "\n" + sep + "\n"
}

func (m Model) renderFooter() string {
	t := m.theme
	a := m.app
	dim := lipgloss.NewStyle().Foreground(t.TextMuted)

	status := a.status
	if a.Busy() && (a.waiting || a.bgTasks > 0) {
		status = m.spinner.View() + " " + status
	}
	statusSt := lipgloss.NewStyle().Foreground(t.Text)
	if strings.HasPrefix(a.status, "error") || strings.Contains(a.status, "failed") || strings.HasPrefix(a.status, "Failed") {
		statusSt = statusSt.Foreground(t.Error)
	}

	right := dim.Render(a.mode.String())
	if a.lastUsage != "" {
		right = dim.Render(a.lastUsage) + "  " + right
	}
	left := statusSt.Render(status)
	pad := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	keys := chatKeys
	if a.mode != ModeChat {
		keys = pickerKeys
	}
	sep := lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", m.width))
	return sep + "\n" + left + strings.Repeat(" ", pad) + right + "\n" + m.help.ShortHelpView(keys)
}

func (m Model) renderDebug() string {
	t := m.theme
	a := m.app
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	lines := []string{
		fmt.Sprintf("api: %s  profile: %s  bg: %d  job: %s", a.apiURL, a.profile, a.bgTasks, orDash(a.lastJob)),
		fmt.Sprintf("request: %s  elapsed: %s  served: %s/%s", orDash(a.lastRequestID), a.lastElapsed, orDash(a.lastProvider), orDash(a.lastModel)),
		fmt.Sprintf("lane: %s  stream: %s", orDash(a.lane), orDash(a.streamStatus)),
	}
	activity := "-"
	if n := len(a.activity); n > 0 {
		activity = a.activity[n-1]
	}
	lines = append(lines, "activity: "+activity)
	return dim.Render(strings.Join(lines, "\n"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ─── Transcript ─────────────────────────────────────────────────────────────────

func (m Model) renderTranscript() string {
	t := m.theme
	width := max(m.width-4, 20)
	userSt := lipgloss.NewStyle().
		Border(lipgloss.Border{Left: "┃"}).
		BorderForeground(t.User).
		PaddingLeft(1).
		Width(width)
	sysSt := lipgloss.NewStyle().Foreground(t.System).Width(width)
	pendingSt := lipgloss.NewStyle().Foreground(t.TextMuted)

	var blocks []string
	for _, msg := range m.app.messages {
		switch {
		case msg.Role == RoleUser:
			blocks = append(blocks, userSt.Render(msg.Content))
		case msg.pending():
			blocks = append(blocks, pendingSt.Render(m.spinner.View()+" "+msg.Content))
		case msg.Role == RoleAssistant:
			blocks = append(blocks, m.markdown.Render(msg.Content))
		default:
			blocks = append(blocks, sysSt.Render(msg.Content))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// renderViewportWithScrollbar draws the transcript with a scrollbar column
// when it overflows.
func (m Model) renderViewportWithScrollbar() string {
	content := m.viewport.View()
	total := m.viewport.TotalLineCount()
	if content == "" || m.viewport.Height < 3 || total <= m.viewport.Height {
		return content
	}

	lines := strings.Split(content, "\n")
	if len(lines) > m.viewport.Height {
		lines = lines[:m.viewport.Height]
	}
	thumb := int(m.viewport.ScrollPercent() * float64(m.viewport.Height-1))
	track := lipgloss.NewStyle().Foreground(m.theme.Border)
	thumbSt := lipgloss.NewStyle().Foreground(m.theme.Primary)

	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		if w := lipgloss.Width(line); w < m.viewport.Width {
			b.WriteString(strings.Repeat(" ", m.viewport.Width-w))
		}
		b.WriteString(" ")
		switch {
		case i == thumb:
			b.WriteString(thumbSt.Render("█"))
		case i == 0:
			b.WriteString(track.Render("▲"))
		case i == len(lines)-1:
			b.WriteString(track.Render("▼"))
		default:
			b.WriteString(track.Render("│"))
		}
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderEditor(e *lineEditor, placeholder string) string {
	t := m.theme
	cursorSt := lipgloss.NewStyle().Reverse(true)
	if e.Len() == 0 {
		ph := lipgloss.NewStyle().Foreground(t.TextDim).Render(placeholder)
		return cursorSt.Render(" ") + ph
	}
	pos := min(e.cursor, len(e.buf))
	before := string(e.buf[:pos])
	if pos == len(e.buf) {
		return before + cursorSt.Render(" ")
	}
	return before + cursorSt.Render(string(e.buf[pos])) + string(e.buf[pos+1:])
}

func (m Model) renderInput() string {
	prompt := lipgloss.NewStyle().Foreground(m.theme.Primary).Bold(true).Render("> ")
	placeholder := "Message Starbot (Enter to send)"
	if m.app.waiting {
		placeholder = "Waiting for reply... (Ctrl+X to cancel)"
	}
	return prompt + m.renderEditor(&m.app.input, placeholder)
}

// ─── Dialogs ────────────────────────────────────────────────────────────────────

func (m Model) dialogStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(0, 1).
		Width(min(max(m.width-10, 30), 90))
}

// renderList windows items around sel so the selection stays visible.
func (m Model) renderList(items []string, sel, height int) []string {
	if len(items) == 0 {
		return []string{lipgloss.NewStyle().Foreground(m.theme.TextDim).Render("(empty)")}
	}
	start := 0
	if sel >= height {
		start = sel - height + 1
	}
	end := min(start+height, len(items))

	selSt := lipgloss.NewStyle().Foreground(m.theme.Background).Background(m.theme.Primary)
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i == sel {
			out = append(out, selSt.Render("▸ "+items[i]))
		} else {
			out = append(out, "  "+items[i])
		}
	}
	return out
}

func (m Model) renderDialog() string {
	a := m.app
	t := m.theme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted)
	listHeight := max(m.height/2, 5)

	var lines []string
	switch a.mode {
	case ModeHelp:
		lines = append([]string{title.Render("Help"), ""}, HelpLines()...)
	case ModeModelPicker:
		items := make([]string, len(a.models))
		for i, o := range a.models {
			mark := "  "
			if o.Provider == a.provider && o.Model == a.modelID {
				mark = "● "
			}
			items[i] = mark + o.Label + dim.Render(" "+o.Provider+"/"+orDash(o.Model))
		}
		lines = append([]string{title.Render("Models"), ""}, m.renderList(items, a.modelSel, listHeight)...)
	case ModeWorkspacePicker:
		items := make([]string, len(a.workspaces))
		for i, w := range a.workspaces {
			s := w.Name
			if w.ID == a.workspaceID {
				s = "● " + s
			}
			if w.Archived {
				s += dim.Render(" (archived)")
			}
			if w.RootPath != "" {
				s += dim.Render(" " + w.RootPath)
			}
			items[i] = s
		}
		lines = append([]string{title.Render("Workspaces"), ""}, m.renderList(items, a.workspaceSel, listHeight)...)
	case ModeThreadPicker:
		items := make([]string, len(a.threads))
		for i, th := range a.threads {
			s := th.Title
			if th.Pinned {
				s = "★ " + s
			}
			items[i] = s + dim.Render(fmt.Sprintf(" (%d msgs)", th.MessageCount))
		}
		lines = append([]string{title.Render("Threads"), ""}, m.renderList(items, a.threadSel, listHeight)...)
	case ModeMemoryPanel:
		state := "OFF"
		if a.memorySettings.Enabled {
			state = "ON"
		}
		items := make([]string, len(a.memoryItems))
		for i, it := range a.memoryItems {
			items[i] = fmt.Sprintf("[%s/%s] %s", it.Scope, it.Type, it.Content)
		}
		lines = append([]string{
			title.Render("Memory"),
			dim.Render(fmt.Sprintf("memory %s • max %d items • %d tokens • m toggle", state,
				a.memorySettings.MaxItemsInjected, a.memorySettings.MaxContextTokens)),
			"",
		}, m.renderList(items, a.memorySel, listHeight)...)
	case ModeChoiceModal:
		if a.choice == nil {
			return ""
		}
		items := make([]string, len(a.choice.Options))
		for i, o := range a.choice.Options {
			items[i] = o.Label
			if o.Description != "" {
				items[i] += dim.Render(" - " + o.Description)
			}
		}
		hint := a.choice.Hint
		if hint == "" {
			hint = defaultChoiceHint
		}
		lines = append([]string{title.Render(a.choice.Title), ""}, m.renderList(items, a.choiceSel, listHeight)...)
		lines = append(lines, "", dim.Render(hint))
	case ModeTextPrompt:
		if a.prompt == nil {
			return ""
		}
		lines = []string{
			title.Render(a.prompt.prompt),
			"",
			m.renderEditor(&a.prompt.input, "type a value"),
			"",
			dim.Render("Enter send • Esc cancel"),
		}
	case ModeToolApproval:
		if a.pendingTool == nil {
			return ""
		}
		lines = []string{title.Render("Approve tool: " + a.pendingTool.ToolName), ""}
		for _, f := range a.pendingTool.TargetFiles {
			lines = append(lines, "• "+f)
		}
		preview := strings.Split(a.pendingTool.Preview, "\n")
		if len(preview) > listHeight {
			preview = append(preview[:listHeight], "…")
		}
		lines = append(lines, dim.Render(strings.Join(preview, "\n")), "",
			lipgloss.NewStyle().Foreground(t.Success).Render("y approve")+"  "+
				lipgloss.NewStyle().Foreground(t.Error).Render("n deny"))
	case ModeFileBrowser:
		items := make([]string, len(a.files))
		for i, f := range a.files {
			if f.IsDir {
				items[i] = f.Name + "/"
			} else {
				items[i] = f.Name + dim.Render(" "+formatBytes(f.Size))
			}
		}
		lines = append([]string{title.Render("Files: " + a.filesPath), ""}, m.renderList(items, a.fileSel, listHeight)...)
		lines = append(lines, "", dim.Render("Enter open • ← parent • Esc close"))
	default:
		return ""
	}
	return m.dialogStyle().Render(strings.Join(lines, "\n"))
}
