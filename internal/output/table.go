package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle    = lipgloss.NewStyle().Faint(true)
)

// Table renders headers and rows with the shared list style.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

// Priority renders a Linear priority number for table cells. Values
// come out of decoded JSON, so numbers arrive as float64.
func Priority(v any) string {
	n, ok := v.(float64)
	if !ok {
		return "-"
	}
	switch int(n) {
	case 1:
		return urgentStyle.Render("Urgent")
	case 2:
		return highStyle.Render("High")
	case 3:
		return "Normal"
	case 4:
		return lowStyle.Render("Low")
	default:
		return "-"
	}
}
