package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateChars(t *testing.T) {
	s, clipped := truncateChars("héllo", 2)
	assert.Equal(t, "hé", s)
	assert.True(t, clipped)

	s, clipped = truncateChars("abc", 3)
	assert.Equal(t, "abc", s)
	assert.False(t, clipped)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "", formatBytes(-1))
	assert.Equal(t, "0 B", formatBytes(0))
	assert.Equal(t, "2.0 KiB", formatBytes(2048))
}

func TestFormatDirListing(t *testing.T) {
	text, ok := formatDirListing(decode(t, `{
		"path":"src",
		"truncated":true,
		"entries":[
			{"name":"pkg","type":"dir"},
			{"name":"main.go","type":"file","bytes":1024},
			{"name":"link","type":"symlink"},
			{"type":"file"}
		]}`))
	require.True(t, ok)
	want := strings.Join([]string{
		"Auto tool: file.dir",
		"",
		"Directory listing for `src` (4 entries, truncated):",
		"",
		"Folders:",
		"- pkg/",
		"",
		"Files:",
		"- main.go (1.0 KiB)",
		"",
		"Other:",
		"- link",
		"",
		"Truncated: yes.",
	}, "\n")
	assert.Equal(t, want, text)

	_, ok = formatDirListing(decode(t, `{"path":"x"}`))
	assert.False(t, ok)
}

func TestFormatDirListingLimit(t *testing.T) {
	entries := make([]any, maxDirEntries+3)
	for i := range entries {
		entries[i] = map[string]any{"name": "f", "type": "file"}
	}
	text, ok := formatDirListing(map[string]any{"entries": entries})
	require.True(t, ok)
	assert.Contains(t, text, "Directory listing for `.`")
	assert.Equal(t, maxDirEntries, strings.Count(text, "\n- f"))
	assert.Contains(t, text, "\n- ...\n")
	assert.True(t, strings.HasSuffix(text, "Truncated: no."))
}

func TestFormatFileRead(t *testing.T) {
	text, ok := formatFileRead(decode(t, `{
		"path":"a.go","content":"package a","detectedType":"go",
		"totalBytes":9,"lineStart":1,"lineEnd":1}`))
	require.True(t, ok)
	assert.Equal(t, "Auto tool: file.read\n\n"+
		"File: `a.go` (type=go, lines 1-1, bytes=9, truncated=no)\n\n"+
		"```go\npackage a\n```", text)

	long := strings.Repeat("x", maxToolOutputChars+5)
	text, ok = formatFileRead(map[string]any{"content": long})
	require.True(t, ok)
	assert.Contains(t, text, "```text\n")
	assert.Contains(t, text, truncatedMarker)

	_, ok = formatFileRead(map[string]any{"path": "a"})
	assert.False(t, ok)
}

func TestFormatToolProposal(t *testing.T) {
	text := formatToolProposal("file.write", decode(t, `{"requiresConfirmation":true,"preview":{"path":"a"}}`))
	assert.True(t, strings.HasPrefix(text, "Tool proposal (requires confirmation): file.write\n\n{\n  \"path\": \"a\"\n}"))
	assert.True(t, strings.HasSuffix(text, "choices only support safe tools."))

	text = formatToolProposal("shell.exec", decode(t, `{"result":{"exitCode":0}}`))
	assert.Equal(t, "Tool result: shell.exec (runId: -)\n\n{\n  \"exitCode\": 0\n}", text)

	text = formatToolProposal("file.dir", decode(t, `{"runId":"r1","result":{"weird":true}}`))
	assert.Equal(t, "Tool result: file.dir (runId: r1)\n\n{\"weird\":true}", text)
}

func TestFormatAutoTools(t *testing.T) {
	out := formatAutoTools(decode(t, `{"autoTools":[
		{"toolName":"file.read","result":{"path":"a","content":"x"}},
		{"toolName":"shell.exec","result":{"ok":true}},
		{"toolName":"file.dir"}
	]}`))
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0], "Auto tool: file.read"))
	assert.Nil(t, formatAutoTools(map[string]any{}))
}

func TestLocalDirListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Zeta"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "alpha"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.md"), nil, 0o644))

	text := localDirListing(dir, "")
	lines := strings.Split(text, "\n")
	assert.Equal(t, "Local directory listing for `"+dir+"` (4 entries):", lines[0])
	assert.Equal(t, "Folders:", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "- alpha/"))
	assert.True(t, strings.HasPrefix(lines[4], "- Zeta/"))
	assert.Equal(t, "Files:", lines[6])
	assert.Equal(t, "- A.md (0 B)", lines[7])
	assert.Equal(t, "- b.txt (5 B)", lines[8])

	sub := localDirListing(dir, "alpha")
	assert.Contains(t, sub, "`"+filepath.Join(dir, "alpha")+"` (0 entries)")

	missing := localDirListing(dir, "nope")
	assert.True(t, strings.HasPrefix(missing, "Local directory listing failed for `"+filepath.Join(dir, "nope")+"`"))
}
