package theme

import "github.com/charmbracelet/lipgloss"

// Mocha is Catppuccin Mocha.
func Mocha() *Theme {
	return &Theme{
		Name: "mocha",
		Type: "dark",

		Primary: lipgloss.Color("#CBA6F7"), // Mauve
		Accent:  lipgloss.Color("#F5C2E7"), // Pink
		Success: lipgloss.Color("#A6E3A1"),
		Warning: lipgloss.Color("#F9E2AF"),
		Error:   lipgloss.Color("#F38BA8"),

		Text:      lipgloss.Color("#CDD6F4"),
		TextMuted: lipgloss.Color("#A6ADC8"),
		TextDim:   lipgloss.Color("#6C7086"),

		Background: lipgloss.Color("#1E1E2E"),
		Surface:    lipgloss.Color("#313244"),
		Border:     lipgloss.Color("#6C7086"),

		User:      lipgloss.Color("#89B4FA"),
		Assistant: lipgloss.Color("#CDD6F4"),
		System:    lipgloss.Color("#6C7086"),

		MarkdownStyle: "dark",
	}
}

// Latte is Catppuccin Latte.
func Latte() *Theme {
	return &Theme{
		Name: "latte",
		Type: "light",

		Primary: lipgloss.Color("#8839EF"),
		Accent:  lipgloss.Color("#EA76CB"),
		Success: lipgloss.Color("#40A02B"),
		Warning: lipgloss.Color("#DF8E1D"),
		Error:   lipgloss.Color("#D20F39"),

		Text:      lipgloss.Color("#4C4F69"),
		TextMuted: lipgloss.Color("#6C6F85"),
		TextDim:   lipgloss.Color("#9CA0B0"),

		Background: lipgloss.Color("#EFF1F5"),
		Surface:    lipgloss.Color("#E6E9EF"),
		Border:     lipgloss.Color("#ACB0BE"),

		User:      lipgloss.Color("#1E66F5"),
		Assistant: lipgloss.Color("#4C4F69"),
		System:    lipgloss.Color("#9CA0B0"),

		MarkdownStyle: "light",
	}
}

func Dracula() *Theme {
	return &Theme{
		Name: "dracula",
		Type: "dark",

		Primary: lipgloss.Color("#BD93F9"),
		Accent:  lipgloss.Color("#FF79C6"),
		Success: lipgloss.Color("#50FA7B"),
		Warning: lipgloss.Color("#F1FA8C"),
		Error:   lipgloss.Color("#FF5555"),

		Text:      lipgloss.Color("#F8F8F2"),
		TextMuted: lipgloss.Color("#BFBFBF"),
		TextDim:   lipgloss.Color("#6272A4"),

		Background: lipgloss.Color("#282A36"),
		Surface:    lipgloss.Color("#44475A"),
		Border:     lipgloss.Color("#6272A4"),

		User:      lipgloss.Color("#8BE9FD"),
		Assistant: lipgloss.Color("#F8F8F2"),
		System:    lipgloss.Color("#6272A4"),

		MarkdownStyle: "dracula",
	}
}

func Nord() *Theme {
	return &Theme{
		Name: "nord",
		Type: "dark",

		Primary: lipgloss.Color("#88C0D0"),
		Accent:  lipgloss.Color("#B48EAD"),
		Success: lipgloss.Color("#A3BE8C"),
		Warning: lipgloss.Color("#EBCB8B"),
		Error:   lipgloss.Color("#BF616A"),

		Text:      lipgloss.Color("#ECEFF4"),
		TextMuted: lipgloss.Color("#D8DEE9"),
		TextDim:   lipgloss.Color("#4C566A"),

		Background: lipgloss.Color("#2E3440"),
		Surface:    lipgloss.Color("#3B4252"),
		Border:     lipgloss.Color("#4C566A"),

		User:      lipgloss.Color("#81A1C1"),
		Assistant: lipgloss.Color("#ECEFF4"),
		System:    lipgloss.Color("#4C566A"),

		MarkdownStyle: "dark",
	}
}

func TokyoNight() *Theme {
	return &Theme{
		Name: "tokyo-night",
		Type: "dark",

		Primary: lipgloss.Color("#7AA2F7"),
		Accent:  lipgloss.Color("#BB9AF7"),
		Success: lipgloss.Color("#9ECE6A"),
		Warning: lipgloss.Color("#E0AF68"),
		Error:   lipgloss.Color("#F7768E"),

		Text:      lipgloss.Color("#C0CAF5"),
		TextMuted: lipgloss.Color("#A9B1D6"),
		TextDim:   lipgloss.Color("#565F89"),

		Background: lipgloss.Color("#1A1B26"),
		Surface:    lipgloss.Color("#24283B"),
		Border:     lipgloss.Color("#565F89"),

		User:      lipgloss.Color("#7DCFFF"),
		Assistant: lipgloss.Color("#C0CAF5"),
		System:    lipgloss.Color("#565F89"),

		MarkdownStyle: "tokyo-night",
	}
}

func Gruvbox() *Theme {
	return &Theme{
		Name: "gruvbox",
		Type: "dark",

		Primary: lipgloss.Color("#FABD2F"),
		Accent:  lipgloss.Color("#D3869B"),
		Success: lipgloss.Color("#B8BB26"),
		Warning: lipgloss.Color("#FE8019"),
		Error:   lipgloss.Color("#FB4934"),

		Text:      lipgloss.Color("#EBDBB2"),
		TextMuted: lipgloss.Color("#D5C4A1"),
		TextDim:   lipgloss.Color("#928374"),

		Background: lipgloss.Color("#282828"),
		Surface:    lipgloss.Color("#3C3836"),
		Border:     lipgloss.Color("#665C54"),

		User:      lipgloss.Color("#83A598"),
		Assistant: lipgloss.Color("#EBDBB2"),
		System:    lipgloss.Color("#928374"),

		MarkdownStyle: "dark",
	}
}
