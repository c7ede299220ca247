package widgets

import "github.com/charmbracelet/lipgloss"

// Widget is anything that can draw itself into a width x height cell grid.
type Widget interface {
	Render(width, height int) string
}

// Pane is a bordered box with a title. Focused panes get the accent border.
type Pane struct {
	Title   string
	Content string
	Focused bool
}

func (p Pane) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(width - 2).
		Height(max(1, height-2))
	if p.Focused {
		style = style.BorderForeground(lipgloss.Color("#89b4fa"))
	}
	title := p.Title
	if title != "" {
		title = "[" + title + "]\n"
	}
	return style.Render(title + p.Content)
}
