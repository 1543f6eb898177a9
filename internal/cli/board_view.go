package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todoboard/internal/todo"
)

const boardColumnWidth = 28

var columnColors = map[todo.Status]lipgloss.Color{
	todo.StatusTodo:      lipgloss.Color("33"),
	todo.StatusDoing:     lipgloss.Color("214"),
	todo.StatusCompleted: lipgloss.Color("42"),
}

// RenderBoard lays the board out as three bordered columns. Colours are
// dropped automatically when w is not a terminal.
func RenderBoard(w io.Writer, board todo.Board) string {
	r := lipgloss.NewRenderer(w)
	cols := make([]string, 0, 3)
	for _, col := range board.Columns() {
		header := r.NewStyle().Bold(true).Foreground(columnColors[col.Status]).
			Render(fmt.Sprintf("%s (%d)", col.Status, len(col.Items)))
		lines := []string{header, ""}
		if len(col.Items) == 0 {
			lines = append(lines, r.NewStyle().Faint(true).Render("empty"))
		}
		for _, t := range col.Items {
			lines = append(lines, fmt.Sprintf("#%s %s", t.ID, t.Title))
		}
		box := r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(columnColors[col.Status]).
			Padding(0, 1).
			Width(boardColumnWidth).
			Render(strings.Join(lines, "\n"))
		cols = append(cols, box)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}
