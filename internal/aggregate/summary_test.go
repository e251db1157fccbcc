package aggregate

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"reqtester/internal/normalize"
	"reqtester/pkg/tester"
)

func record(success bool, duration *float64, toolCalls string) normalize.Record {
	raw := tester.RawResult{Success: success, Duration: duration}
	if toolCalls != "" {
		raw.ToolCalls = json.RawMessage(toolCalls)
	}
	if !success {
		msg := "timeout"
		raw.Error = &msg
	}
	return normalize.Decode(raw)
}

func f(v float64) *float64 { return &v }

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	require.False(t, summary.Available)
	require.False(t, summary.HasToolCallStats)
	require.Zero(t, summary.Total)
	require.Zero(t, summary.AvgDuration)
	require.Equal(t, summary.Total, summary.SuccessCount+summary.ErrorCount)
}

func TestSummarizeCounts(t *testing.T) {
	records := []normalize.Record{
		record(true, f(1.0), `[{"name":"search"},{"name":"calc"}]`),
		record(true, nil, ""),
		record(false, f(2.0), `["ignored"]`),
	}
	summary := Summarize(records)
	require.True(t, summary.Available)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.SuccessCount)
	require.Equal(t, 1, summary.ErrorCount)
	require.InDelta(t, 1.0, summary.AvgDuration, 1e-9)
	require.Equal(t, 1, summary.ToolCallSessions)
	require.Equal(t, 2, summary.TotalToolCalls)
	require.Equal(t, 33, summary.ToolCallProbabilityPct)
}

func TestSummarizeInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := rng.Intn(12)
		records := make([]normalize.Record, 0, n)
		for j := 0; j < n; j++ {
			var d *float64
			if rng.Intn(3) > 0 {
				d = f(rng.Float64() * 5)
			}
			records = append(records, record(rng.Intn(2) == 0, d, ""))
		}
		summary := Summarize(records)
		require.Equal(t, summary.Total, summary.SuccessCount+summary.ErrorCount)
		require.Equal(t, n, summary.Total)
		if n == 0 {
			require.Zero(t, summary.AvgDuration)
		}
	}
}

func TestSummarizeTokens(t *testing.T) {
	in, out := 3, 4
	records := normalize.DecodeAll([]tester.RawResult{
		{Success: true, InputTokens: &in, OutputTokens: &out},
		{Success: true, InputTokens: &in, OutputTokens: &out},
	})
	summary := Summarize(records)
	require.Equal(t, 6, summary.InputTokens)
	require.Equal(t, 8, summary.OutputTokens)
	require.Equal(t, 14, summary.TotalTokens)
}

func TestProgressPct(t *testing.T) {
	require.Equal(t, 33, ProgressPct(1, 3))
	require.Equal(t, 67, ProgressPct(2, 3))
	require.Equal(t, 100, ProgressPct(3, 3))
	require.Equal(t, 100, ProgressPct(5, 3))
	require.Equal(t, 0, ProgressPct(0, 3))
	require.Equal(t, 0, ProgressPct(1, 0))
}
