package theme

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Default is the theme used when the config names none.
const Default = "mocha"

// Theme is a color scheme for the TUI.
type Theme struct {
	Name string
	Type string // "dark" or "light"

	// Core colors
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Text colors
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	TextDim   lipgloss.Color

	// UI colors
	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	// Transcript roles
	User      lipgloss.Color
	Assistant lipgloss.Color
	System    lipgloss.Color

	// MarkdownStyle is the glamour standard style ("dark" or "light").
	MarkdownStyle string
}

// Registry holds the available themes.
type Registry struct {
	themes map[string]*Theme
}

// NewRegistry creates a registry with the builtin themes.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]*Theme)}
	for _, t := range []*Theme{Mocha(), Latte(), Dracula(), Nord(), TokyoNight(), Gruvbox()} {
		r.Register(t)
	}
	return r
}

// Get returns a theme by name.
func (r *Registry) Get(name string) (*Theme, error) {
	t, ok := r.themes[name]
	if !ok {
		return nil, fmt.Errorf("theme not found: %s", name)
	}
	return t, nil
}

// Lookup returns name, falling back to the default theme.
func (r *Registry) Lookup(name string) *Theme {
	if t, err := r.Get(name); err == nil {
		return t
	}
	return r.themes[Default]
}

// Names returns the sorted theme names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a theme.
func (r *Registry) Register(t *Theme) {
	r.themes[t.Name] = t
}
