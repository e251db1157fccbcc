package live

import (
	"fmt"
	"time"

	"reqtester/internal/normalize"
	"reqtester/internal/session"
)

// Reduce applies a controller snapshot to the UI state. Snapshots older than
// the one already applied are ignored.
func Reduce(state State, view session.View, now time.Time) State {
	if view.Version != 0 && view.Version <= state.Version {
		return state
	}
	if message := formatLastEvent(state, view); message != "" {
		state.LastEvent = message
	}
	if state.StartedAt.IsZero() && view.Phase != session.PhaseIdle {
		state.StartedAt = now
	}
	if view.Phase.Terminal() && state.FinishedAt.IsZero() {
		state.FinishedAt = now
	}
	state.Version = view.Version
	state.SessionID = view.SessionID
	state.Phase = view.Phase
	state.Status = view.Status
	state.Completed = view.Completed
	state.Total = view.Total
	state.ProgressPct = view.ProgressPct
	state.Summary = view.Summary
	state.Failures = view.Failures
	state.Err = ""
	if view.Err != nil {
		state.Err = view.Err.Error()
	}
	state.Sessions = len(view.Sessions)
	state.Rows = rowsFromRecords(view.Records)
	return state
}

// rowsFromRecords converts decoded records into display rows.
func rowsFromRecords(records []normalize.Record) []ResultRow {
	if len(records) == 0 {
		return nil
	}
	rows := make([]ResultRow, 0, len(records))
	for _, record := range records {
		row := ResultRow{
			Index:       record.Index,
			Success:     record.Success,
			Duration:    record.Duration,
			HasDuration: record.HasDuration,
			Tokens:      record.TotalTokens,
			HasTokens:   record.HasTokens,
			Text:        record.DisplayText(),
		}
		if record.Success {
			response := record.Response()
			row.Fallback = !response.HasData()
			for _, call := range response.ToolCalls {
				row.Tools = append(row.Tools, call.Name)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// formatLastEvent describes the transition from state to view.
func formatLastEvent(state State, view session.View) string {
	short := session.ShortID(view.SessionID)
	switch {
	case view.Phase == session.PhaseSubmitting && state.Phase != session.PhaseSubmitting:
		return fmt.Sprintf("submitting %d requests", view.Total)
	case view.Phase == session.PhasePolling && state.Phase == session.PhaseSubmitting:
		return "session " + short + " accepted"
	case view.Phase == session.PhasePolling && view.Failures > 0 && view.Err != nil:
		return fmt.Sprintf("poll failed (%d), retrying: %v", view.Failures, view.Err)
	case view.Phase == session.PhasePolling && view.Completed > state.Completed:
		return fmt.Sprintf("%d/%d results", view.Completed, view.Total)
	case view.Phase == session.PhaseCompleted && state.Phase != session.PhaseCompleted:
		return "session " + short + " completed"
	case view.Phase == session.PhaseFailed && state.Phase != session.PhaseFailed:
		if view.Err != nil {
			return "failed: " + view.Err.Error()
		}
		return "session " + short + " failed"
	case view.Phase == session.PhaseStalled && state.Phase != session.PhaseStalled:
		return fmt.Sprintf("polling stalled after %d failures", view.Failures)
	}
	return ""
}
