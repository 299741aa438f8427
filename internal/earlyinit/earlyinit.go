// Package earlyinit must be imported before github.com/charmbracelet/bubbletea
// in cmd/starbott/main.go. Its init decides lipgloss's dark-background flag up
// front so bubbletea's own init finds the value cached and never sends the
// OSC 11 background query.
//
// On WSL2 the cursor-position reply to that query can arrive before the OSC
// reply, which then sits in the PTY buffer and is read back as keystrokes in
// the prompt. The decision here only uses the environment: COLORFGBG when the
// terminal exports it, dark otherwise.
package earlyinit

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func init() {
	lipgloss.SetHasDarkBackground(darkBackground(os.Getenv("COLORFGBG")))
}

// darkBackground reads a "fg;bg" or "fg;default;bg" pair. ANSI colours 7 and
// 15 as background mean a light terminal.
func darkBackground(colorfgbg string) bool {
	parts := strings.Split(colorfgbg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return true
	}
	return bg != 7 && bg != 15
}
