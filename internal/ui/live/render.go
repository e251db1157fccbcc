package live

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"reqtester/internal/session"
)

// renderHeader renders the session header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Session "
	if state.SessionID != "" {
		line += session.ShortID(state.SessionID)
	} else {
		line += "-"
	}
	if state.Model != "" {
		line += " | Model: " + state.Model
	}
	if state.Requested > 0 {
		line += " | Count: " + fmtInt(state.Requested)
	}
	if elapsed := formatElapsed(state, now); elapsed != "" {
		line += " | Elapsed: " + elapsed
	}
	line += " | " + string(phaseOrIdle(state.Phase))
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderProgress renders the completion bar and counter.
func renderProgress(state State, bar progress.Model) string {
	counter := " " + fmtInt(state.Completed) + "/" + fmtInt(state.Total) + " (" + fmtInt(state.ProgressPct) + "%)"
	return bar.ViewAs(float64(state.ProgressPct)/100) + counter
}

// renderSummary renders the aggregated statistics line.
func renderSummary(state State, noColor bool) string {
	summary := state.Summary
	if !summary.Available {
		return stylize("No results yet", noColor, lipgloss.Color("242"))
	}
	line := "Total: " + fmtInt(summary.Total) +
		" Success: " + fmtInt(summary.SuccessCount) +
		" Error: " + fmtInt(summary.ErrorCount) +
		" Avg: " + formatSeconds(summary.AvgDuration, true)
	if summary.HasToolCallStats {
		line += " Tools: " + fmtInt(summary.ToolCallProbabilityPct) + "% (" + fmtInt(summary.TotalToolCalls) + " calls)"
	}
	if summary.TotalTokens > 0 {
		line += " Tokens: " + fmtInt(summary.InputTokens) + "/" + fmtInt(summary.OutputTokens) + "/" + fmtInt(summary.TotalTokens)
	}
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFooter renders the last event and any error.
func renderFooter(state State, noColor bool) string {
	if state.Err != "" && state.Phase.Terminal() {
		return stylize("Error: "+state.Err, noColor, lipgloss.Color("196"))
	}
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

func phaseOrIdle(phase session.Phase) session.Phase {
	if phase == "" {
		return session.PhaseIdle
	}
	return phase
}
