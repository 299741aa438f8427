package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/theme"
)

// pollMsg fires once per render tick; every tick drains the inbox.
type pollMsg time.Time

// Model adapts App to bubbletea. It owns the App, so every mutation happens
// on the bubbletea update goroutine.
type Model struct {
	app        *App
	inbox      *Inbox
	dispatcher *Dispatcher
	logger     *slog.Logger

	theme    *theme.Theme
	markdown *markdownRenderer
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	width  int
	height int

	// copy is swapped out in tests.
	copy func(string) error
}

// NewModel wires an App to its inbox and dispatcher.
func NewModel(app *App, d *Dispatcher, inbox *Inbox, th *theme.Theme, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Primary)

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.TextMuted)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(th.TextDim)

	return Model{
		app:        app,
		inbox:      inbox,
		dispatcher: d,
		logger:     logger,
		theme:      th,
		markdown:   newMarkdownRenderer(th.MarkdownStyle, 76),
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		help:       h,
		copy:       clipboard.WriteAll,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

func (m Model) poll() tea.Cmd {
	return tea.Tick(m.app.PollInterval(), func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (m Model) spawn(jobs []Job) {
	if m.dispatcher != nil {
		m.dispatcher.SpawnAll(jobs)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = max(msg.Width-2, 10)
		m.markdown.SetWidth(m.viewport.Width - 2)

	case tea.KeyMsg:
		if msg.String() == "ctrl+y" && m.app.mode == ModeChat {
			m.copyLastReply()
			break
		}
		m.spawn(m.app.HandleKey(msg))
		if m.app.quit {
			return m, tea.Quit
		}

	case pollMsg:
		for _, in := range m.inbox.Drain() {
			m.spawn(m.app.Apply(in))
		}
		cmd = m.poll()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	}

	m.refreshViewport()
	return m, cmd
}

func (m *Model) copyLastReply() {
	reply, ok := m.app.LastReply()
	if !ok {
		m.app.status = "No assistant message to copy"
		return
	}
	if err := m.copy(reply); err != nil {
		m.app.status = "Failed to copy: " + err.Error()
		return
	}
	m.app.status = fmt.Sprintf("Copied %d characters to clipboard", len(reply))
}

// refreshViewport re-renders the transcript and applies the scroll offset,
// counted in lines up from the bottom.
func (m *Model) refreshViewport() {
	if m.width == 0 {
		return
	}
	m.viewport.Height = m.transcriptHeight()
	m.viewport.SetContent(m.renderTranscript())

	bottom := max(m.viewport.TotalLineCount()-m.viewport.Height, 0)
	m.app.scroll = min(m.app.scroll, bottom)
	m.viewport.SetYOffset(bottom - m.app.scroll)
}

// Config is everything Run needs beyond the App options.
type Config struct {
	Options
	Client *api.Client
	Theme  string
	Logger *slog.Logger
}

// Run starts the full-screen TUI and blocks until the user quits or ctx is
// cancelled. In-flight jobs are cancelled on return.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	inbox := NewInbox()
	d := NewDispatcher(cfg.Client, inbox, logger)
	defer d.Shutdown()

	app, jobs := NewApp(cfg.Options)
	d.SpawnAll(jobs)

	th := theme.NewRegistry().Lookup(cfg.Theme)
	logger.Info("tui started", "api", cfg.APIURL, "profile", cfg.Profile, "theme", th.Name, "stream", cfg.Stream)

	p := tea.NewProgram(NewModel(app, d, inbox, th, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
