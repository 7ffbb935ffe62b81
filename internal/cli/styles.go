package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D9534F", Dark: "#FF6B6B"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	successStyle = lipgloss.NewStyle().Foreground(special)
	errorStyle   = lipgloss.NewStyle().Foreground(warning).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(subtle).Italic(true)

	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	tableHeadStyle  = cellStyle.Foreground(highlight).Bold(true)
	tableTotalStyle = cellStyle.Bold(true)
)

// renderTable draws rows under headers. When boldLast is set the last row is
// rendered as a total line.
func renderTable(headers []string, rows [][]string, boldLast bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(subtle)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeadStyle
			case boldLast && row == len(rows)-1:
				return tableTotalStyle
			default:
				return cellStyle
			}
		})

	return t.Render()
}
