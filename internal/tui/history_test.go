package tui

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptHistoryNavigation(t *testing.T) {
	h := newPromptHistory("")
	_, ok := h.Older()
	assert.False(t, ok)

	h.Append("one")
	h.Append("two")
	h.Append("two")

	s, ok := h.Older()
	require.True(t, ok)
	assert.Equal(t, "two", s)
	s, _ = h.Older()
	assert.Equal(t, "one", s)
	s, _ = h.Older()
	assert.Equal(t, "one", s, "stays on the oldest entry")

	assert.Equal(t, "two", h.Newer())
	assert.Equal(t, "", h.Newer())
	assert.Equal(t, "", h.Newer())
}

func TestPromptHistoryPersists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state", "history.jsonl")
	h := newPromptHistory(file)
	h.Append("multi\nline")
	h.Append("second")

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded := newPromptHistory(file)
	assert.Equal(t, []string{"multi\nline", "second"}, reloaded.entries)
	s, _ := reloaded.Older()
	assert.Equal(t, "second", s)
}

func TestPromptHistoryCap(t *testing.T) {
	h := newPromptHistory("")
	for i := 0; i < maxHistoryEntries+10; i++ {
		h.Append("p" + strconv.Itoa(i))
	}
	require.Len(t, h.entries, maxHistoryEntries)
	assert.Equal(t, "p10", h.entries[0])
}
