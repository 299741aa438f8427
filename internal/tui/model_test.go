package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhanuzh/starbott/internal/theme"
)

func newTestModel(t *testing.T) (Model, *Inbox) {
	t.Helper()
	app := newTestApp(t, Options{Stream: true})
	inbox := NewInbox()
	m := NewModel(app, nil, inbox, theme.NewRegistry().Lookup(""), nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), inbox
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelPollDrainsInbox(t *testing.T) {
	m, inbox := newTestModel(t)
	m.app.push(RoleAssistant, typingPlaceholder, false)
	m.app.waiting = true

	inbox.Send(StreamTokenMsg{Tag: Tag{Job: "a"}, Text: "partial"})
	inbox.Send(StreamDoneMsg{Tag: Tag{Job: "a"}, Meta: map[string]any{}})

	m, cmd := update(t, m, pollMsg(time.Now()))
	assert.NotNil(t, cmd, "polling reschedules itself")
	assert.Zero(t, inbox.Len())
	assert.False(t, m.app.Waiting())
	assert.Equal(t, "partial", lastMessage(m.app).Content)
	assert.Contains(t, m.View(), "partial")
}

func TestModelQuitsOnEsc(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelCopyLastReply(t *testing.T) {
	m, _ := newTestModel(t)
	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "No assistant message to copy", m.app.Status())

	m.app.push(RoleAssistant, "héllo", true)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "héllo", copied)
	assert.Equal(t, "Copied 6 characters to clipboard", m.app.Status())

	m.copy = func(string) error { return errors.New("no clipboard") }
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "Failed to copy: no clipboard", m.app.Status())
}

func TestModelViewShowsDialogs(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	view := m.View()
	assert.Contains(t, view, "Claude Haiku 4.5")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Contains(t, m.View(), "model picker")
	assert.True(t, strings.Contains(m.View(), "Starbot"))
}
