package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

func uintPtr(u uint) *uint { return &u }

// compactStyle strips glamour's document margins so replies line up with the
// transcript gutter.
func compactStyle(base ansi.StyleConfig) ansi.StyleConfig {
	s := base
	s.Document.Margin = uintPtr(0)
	s.Document.Indent = uintPtr(0)
	s.Document.BlockPrefix = ""
	s.Document.BlockSuffix = ""
	s.Paragraph.Margin = uintPtr(0)
	s.Paragraph.Indent = uintPtr(0)
	s.CodeBlock.Margin = uintPtr(0)
	return s
}

func styleConfig(name string) ansi.StyleConfig {
	switch name {
	case "light":
		return styles.LightStyleConfig
	case "dracula":
		return styles.DraculaStyleConfig
	case "tokyo-night":
		return styles.TokyoNightStyleConfig
	case "notty":
		return styles.NoTTYStyleConfig
	default:
		return styles.DarkStyleConfig
	}
}

// markdownRenderer renders assistant replies. Output is cached per content
// since the transcript is re-rendered on every poll.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdownRenderer(style string, width int) *markdownRenderer {
	md := &markdownRenderer{style: style}
	md.SetWidth(width)
	return md
}

// SetWidth rebuilds the renderer when the wrap width changes.
func (md *markdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if md.renderer != nil && width == md.width {
		return
	}
	md.width = width
	md.cache = make(map[string]string)
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(compactStyle(styleConfig(md.style))),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r, _ = glamour.NewTermRenderer(glamour.WithWordWrap(width))
	}
	md.renderer = r
}

// Render returns the styled text, or the input unchanged when rendering fails.
func (md *markdownRenderer) Render(text string) string {
	if out, ok := md.cache[text]; ok {
		return out
	}
	if md.renderer == nil {
		return text
	}
	out, err := md.renderer.Render(text)
	if err != nil {
		return text
	}
	out = strings.Trim(out, "\n")
	md.cache[text] = out
	return out
}
