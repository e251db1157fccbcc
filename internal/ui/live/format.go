package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// fmtInt converts an int to string.
func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// formatIndex formats a 1-based result index.
func formatIndex(index int) string {
	if index < 10 {
		return "#0" + fmtInt(index)
	}
	return "#" + fmtInt(index)
}

// formatStatus renders the success flag for a row.
func formatStatus(row ResultRow, noColor bool) string {
	label := "ok"
	color := lipgloss.Color("42")
	if !row.Success {
		label = "error"
		color = lipgloss.Color("196")
	}
	if noColor {
		return label
	}
	return lipgloss.NewStyle().Foreground(color).Render(label)
}

// formatSeconds renders backend durations, which are in seconds.
func formatSeconds(seconds float64, known bool) string {
	if !known {
		return "-"
	}
	return strconv.FormatFloat(seconds, 'f', 2, 64) + "s"
}

func formatRowDuration(row ResultRow) string {
	return formatSeconds(row.Duration, row.HasDuration)
}

// formatTokens formats token counts for display.
func formatTokens(row ResultRow) string {
	if !row.HasTokens || row.Tokens <= 0 {
		return "n/a"
	}
	return fmtInt(row.Tokens)
}

// formatText collapses whitespace and truncates to limit runes.
func formatText(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) <= limit {
		return normalized
	}
	return string(runes[:limit-3]) + "..."
}

// formatTools joins tool names for display.
func formatTools(tools []string) string {
	if len(tools) == 0 {
		return ""
	}
	return strings.Join(tools, ", ")
}

// formatElapsed returns run time so far, or total run time once finished.
func formatElapsed(state State, now time.Time) string {
	if state.StartedAt.IsZero() {
		return ""
	}
	end := now
	if !state.FinishedAt.IsZero() {
		end = state.FinishedAt
	}
	return end.Sub(state.StartedAt).Round(100 * time.Millisecond).String()
}
