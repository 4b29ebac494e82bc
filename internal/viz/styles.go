package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles is rebuilt from the current theme on every frame so theme
// switches apply immediately.
type styles struct {
	canvas   lipgloss.Style
	stats    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	barrier  lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	errorMsg lipgloss.Style
	selected lipgloss.Style
}

func themeStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Foreground(t.Density).Padding(1, 2),
		stats: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(t.Border).
			Padding(1, 2).
			Width(statsWidth),
		header:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		barrier:  lipgloss.NewStyle().Foreground(t.Potential).Bold(true),
		graph:    lipgloss.NewStyle().Foreground(t.Density).Padding(1, 0),
		help:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		running:  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		paused:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		errorMsg: lipgloss.NewStyle().Foreground(t.Error),
		selected: lipgloss.NewStyle().Foreground(t.Potential).Bold(true),
	}
}

// ProgressBar renders a bar coloured by how full it is.
func ProgressBar(percent float64, width int, t Theme) string {
	filled := int(percent*float64(width) + 0.5)
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	c := t.Error
	if percent > 0.8 {
		c = t.Success
	} else if percent > 0.4 {
		c = t.Warning
	}
	return lipgloss.NewStyle().Foreground(c).Render(bar)
}

// Sparkline renders a one-line history of values in [0, 1].
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	start := 0
	if len(values) > width {
		start = len(values) - width
	}

	var b strings.Builder
	for _, v := range values[start:] {
		idx := int(v * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return b.String()
}
