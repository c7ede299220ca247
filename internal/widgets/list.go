package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	listCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	listDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
)

// List renders rows with a cursor row, scrolling so the cursor stays
// visible. Cursor < 0 draws a plain list.
type List struct {
	Title  string
	Items  []string
	Cursor int
}

func (l List) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	rows := make([]string, 0, height)
	if l.Title != "" {
		rows = append(rows, ansi.Truncate(l.Title, width, ""))
	}
	visible := height - len(rows)
	if visible <= 0 {
		return strings.Join(rows, "\n")
	}
	start := 0
	if l.Cursor >= visible {
		start = l.Cursor - visible + 1
	}
	for i := start; i < len(l.Items) && i < start+visible; i++ {
		marker := "  "
		line := l.Items[i]
		if i == l.Cursor {
			marker = listCursorStyle.Render("> ")
			line = listCursorStyle.Render(line)
		}
		rows = append(rows, marker+ansi.Truncate(line, max(1, width-2), ""))
	}
	if len(l.Items) == 0 {
		rows = append(rows, listDimStyle.Render("(empty)"))
	}
	return strings.Join(rows, "\n")
}
