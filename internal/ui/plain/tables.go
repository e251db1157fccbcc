// Package plain renders sessions and results as text for non-interactive
// output.
package plain

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"reqtester/internal/aggregate"
	"reqtester/internal/normalize"
	"reqtester/internal/session"
	"reqtester/pkg/tester"
)

const previewLimit = 60

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// RenderSessions writes the session list.
func RenderSessions(w io.Writer, sessions []tester.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions.")
		return
	}
	table := newTable(w, []string{"Session", "Status", "Created"})
	for _, s := range sessions {
		table.Append([]string{s.SessionID, string(s.Status), s.Timestamp})
	}
	table.Render()
}

// RenderSummary writes the aggregated statistics of a session. Statistics
// are omitted entirely when there are no results.
func RenderSummary(w io.Writer, sessionID string, status tester.SessionStatus, summary aggregate.Summary) {
	fmt.Fprintf(w, "Session %s (%s)\n", sessionID, status)
	if !summary.Available {
		fmt.Fprintln(w, "No results yet.")
		return
	}
	table := newTable(w, []string{"Metric", "Value"})
	table.Append([]string{"Total", strconv.Itoa(summary.Total)})
	table.Append([]string{"Success", strconv.Itoa(summary.SuccessCount)})
	table.Append([]string{"Error", strconv.Itoa(summary.ErrorCount)})
	table.Append([]string{"Avg duration", formatSeconds(summary.AvgDuration)})
	if summary.HasToolCallStats {
		table.Append([]string{"Tool-call results", strconv.Itoa(summary.ToolCallSessions)})
		table.Append([]string{"Tool calls", strconv.Itoa(summary.TotalToolCalls)})
		table.Append([]string{"Tool-call probability", strconv.Itoa(summary.ToolCallProbabilityPct) + "%"})
	}
	if summary.TotalTokens > 0 {
		table.Append([]string{"Tokens (in/out/total)", fmt.Sprintf("%d/%d/%d", summary.InputTokens, summary.OutputTokens, summary.TotalTokens)})
	}
	table.Render()
}

// RenderResults writes one row per result.
func RenderResults(w io.Writer, records []normalize.Record) {
	if len(records) == 0 {
		return
	}
	table := newTable(w, []string{"#", "Status", "Duration", "Tokens", "Response", "Tools"})
	for _, record := range records {
		status := "ok"
		if !record.Success {
			status = "error"
		}
		duration := "-"
		if record.HasDuration {
			duration = formatSeconds(record.Duration)
		}
		tokens := "-"
		if record.HasTokens {
			tokens = strconv.Itoa(record.TotalTokens)
		}
		var tools []string
		if record.Success {
			for _, call := range record.Response().ToolCalls {
				tools = append(tools, call.Name)
			}
		}
		table.Append([]string{
			strconv.Itoa(record.Index),
			status,
			duration,
			tokens,
			preview(record.DisplayText()),
			strings.Join(tools, ", "),
		})
	}
	table.Render()
}

// RenderServerConfig writes the backend's advertised settings.
func RenderServerConfig(w io.Writer, cfg tester.ServerConfig) {
	table := newTable(w, []string{"Setting", "Value"})
	table.Append([]string{"API URL", cfg.APIURL})
	table.Append([]string{"Default model", cfg.DefaultModel})
	table.Append([]string{"Available models", strings.Join(cfg.AvailableModels, ", ")})
	table.Append([]string{"Default temperature", strconv.FormatFloat(cfg.DefaultTemperature, 'f', -1, 64)})
	table.Append([]string{"Default max tokens", strconv.Itoa(cfg.DefaultMaxTokens)})
	table.Append([]string{"Max request count", strconv.Itoa(cfg.MaxRequestCount)})
	table.Append([]string{"Request timeout", strconv.Itoa(cfg.RequestTimeout) + "s"})
	table.Render()
}

// RenderView writes a complete snapshot: summary then results.
func RenderView(w io.Writer, view session.View) {
	RenderSummary(w, view.SessionID, view.Status, view.Summary)
	RenderResults(w, view.Records)
	if view.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", view.Err)
	}
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 2, 64) + "s"
}

func preview(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) <= previewLimit {
		return normalized
	}
	return string(runes[:previewLimit-3]) + "..."
}
