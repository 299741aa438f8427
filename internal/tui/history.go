package tui

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
)

const maxHistoryEntries = 50

// promptHistory recalls previously sent prompts with Up/Down. When file is
// set, entries persist as JSON lines, one string per line.
type promptHistory struct {
	entries []string // oldest first
	index   int      // len(entries) means the fresh input line
	file    string
}

func newPromptHistory(file string) *promptHistory {
	h := &promptHistory{file: file}
	h.load()
	h.index = len(h.entries)
	return h
}

func (h *promptHistory) load() {
	if h.file == "" {
		return
	}
	f, err := os.Open(h.file)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var s string
		if err := json.Unmarshal(sc.Bytes(), &s); err == nil && s != "" {
			h.entries = append(h.entries, s)
		}
	}
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
	}
}

// Append records input and resets navigation. Repeating the last entry is a
// no-op.
func (h *promptHistory) Append(input string) {
	defer func() { h.index = len(h.entries) }()
	if input == "" || (len(h.entries) > 0 && h.entries[len(h.entries)-1] == input) {
		return
	}
	h.entries = append(h.entries, input)
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
	}
	h.persist()
}

// Older steps back; ok is false when there is no history.
func (h *promptHistory) Older() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.index > 0 {
		h.index--
	}
	return h.entries[h.index], true
}

// Newer steps forward; past the newest entry it returns "" for a fresh line.
func (h *promptHistory) Newer() string {
	if h.index < len(h.entries) {
		h.index++
	}
	if h.index == len(h.entries) {
		return ""
	}
	return h.entries[h.index]
}

func (h *promptHistory) persist() {
	if h.file == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.file), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(h.file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, e := range h.entries {
		b, _ := json.Marshal(e)
		w.Write(b)
		w.WriteByte('\n')
	}
	w.Flush()
}
