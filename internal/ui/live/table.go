package live

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

func defaultColumns() []table.Column {
	return columnsForWidth(0)
}

// columnsForWidth gives the response column whatever width remains.
func columnsForWidth(width int) []table.Column {
	fixed := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Status", Width: 7},
		{Title: "Time", Width: 8},
		{Title: "Tokens", Width: 7},
		{Title: "Tools", Width: 20},
	}
	used := 0
	for _, col := range fixed {
		used += col.Width + 2
	}
	responseWidth := 48
	if width > 0 {
		responseWidth = max(width-used-2, 16)
	}
	return []table.Column{
		fixed[0], fixed[1], fixed[2], fixed[3],
		{Title: "Response", Width: responseWidth},
		fixed[4],
	}
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatIndex(row.Index),
			formatStatus(row, noColor),
			formatRowDuration(row),
			formatTokens(row),
			formatText(row.Text, 120),
			formatTools(row.Tools),
		})
	}
	return rows
}
