package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color scheme of the terminal view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeClinic = Theme{
		Name:    "clinic",
		Primary: lipgloss.Color("#00a8cc"),
		Accent:  lipgloss.Color("#00ff66"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeClinic, ThemeMinimal, ThemeRetro}
)

func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClinic
}

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// styles are derived from a theme once per theme change.
type styles struct {
	canvas    lipgloss.Style
	side      lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	playing   lipgloss.Style
	stopped   lipgloss.Style
	recording lipgloss.Style
	graph     lipgloss.Style
	detail    lipgloss.Style
	help      lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Foreground(t.Primary),
		side: lipgloss.NewStyle().
			Padding(0, 2).
			Width(44),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value: lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		playing: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Success),
		stopped: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Warning),
		recording: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Error).
			Blink(true),
		graph: lipgloss.NewStyle().Foreground(t.Accent),
		detail: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Foreground(t.Text).
			PaddingLeft(1),
		help: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}

// ProgressBar renders how far through the recording the timeline is.
func ProgressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
