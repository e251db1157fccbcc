package aggregate

import (
	"math"

	"reqtester/internal/normalize"
)

// Summary aggregates the results of one session.
type Summary struct {
	// Available is false when there are no results; statistics should be
	// hidden rather than shown as zeros.
	Available bool

	Total        int
	SuccessCount int
	ErrorCount   int
	AvgDuration  float64

	// HasToolCallStats is false when the probability is undefined.
	HasToolCallStats       bool
	ToolCallSessions       int
	TotalToolCalls         int
	ToolCallProbabilityPct int

	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Summarize reduces decoded records into summary counters.
func Summarize(records []normalize.Record) Summary {
	summary := Summary{Total: len(records)}
	if summary.Total == 0 {
		return summary
	}
	var durationSum float64
	for _, record := range records {
		if record.Success {
			summary.SuccessCount++
		}
		if record.HasDuration && !math.IsNaN(record.Duration) && !math.IsInf(record.Duration, 0) {
			durationSum += record.Duration
		}
		if calls := record.ToolCallCount(); calls > 0 {
			summary.ToolCallSessions++
			summary.TotalToolCalls += calls
		}
		summary.InputTokens += record.InputTokens
		summary.OutputTokens += record.OutputTokens
		summary.TotalTokens += record.TotalTokens
	}
	summary.Available = true
	summary.ErrorCount = summary.Total - summary.SuccessCount
	summary.AvgDuration = durationSum / float64(summary.Total)
	summary.HasToolCallStats = true
	summary.ToolCallProbabilityPct = percent(summary.ToolCallSessions, summary.Total)
	return summary
}

// ProgressPct returns completed/total as a rounded percentage in [0, 100].
func ProgressPct(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return percent(completed, total)
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
