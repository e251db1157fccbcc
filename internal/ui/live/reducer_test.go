package live

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reqtester/internal/aggregate"
	"reqtester/internal/normalize"
	"reqtester/internal/session"
	"reqtester/internal/testutil"
	"reqtester/pkg/tester"
)

// TestReduceBuildsRows verifies records become display rows.
func TestReduceBuildsRows(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		records := decode(
			testutil.SuccessResult(1, "hello", 1.25),
			testutil.LegacyResult(2, "内容: 你好 | 调用工具: search, calc", 0.5),
			testutil.ErrorResult(3, "timeout", 2),
		)
		state := Reduce(State{}, view(1, session.PhaseCompleted, records), time.Now())

		if len(state.Rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(state.Rows))
		}
		if state.Rows[1].Text != "你好" || strings.Join(state.Rows[1].Tools, ",") != "search,calc" {
			t.Fatalf("unexpected legacy row: %+v", state.Rows[1])
		}
		if state.Rows[2].Success || state.Rows[2].Text != "timeout" {
			t.Fatalf("unexpected error row: %+v", state.Rows[2])
		}
		if state.Summary.SuccessCount != 2 {
			t.Fatalf("expected summary carried over, got %+v", state.Summary)
		}
		if state.FinishedAt.IsZero() {
			t.Fatalf("expected finish time on terminal phase")
		}
	})
}

// TestReduceDropsStaleVersions verifies out-of-order snapshots are ignored.
func TestReduceDropsStaleVersions(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		now := time.Now()
		newer := view(5, session.PhasePolling, decode(testutil.SuccessResult(1, "new", 1)))
		older := view(4, session.PhasePolling, decode(testutil.SuccessResult(1, "old", 1)))
		state := Reduce(State{}, newer, now)
		state = Reduce(state, older, now)
		if state.Version != 5 || state.Rows[0].Text != "new" {
			t.Fatalf("expected newer snapshot to win, got version %d text %q", state.Version, state.Rows[0].Text)
		}
	})
}

// TestReduceLastEvent verifies transitions produce footer messages.
func TestReduceLastEvent(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		now := time.Now()
		state := Reduce(State{}, session.View{Version: 1, Phase: session.PhaseSubmitting, Total: 3}, now)
		if state.LastEvent != "submitting 3 requests" {
			t.Fatalf("unexpected event %q", state.LastEvent)
		}
		state = Reduce(state, session.View{Version: 2, SessionID: "0123456789", Phase: session.PhasePolling, Total: 3}, now)
		if state.LastEvent != "session 01234567 accepted" {
			t.Fatalf("unexpected event %q", state.LastEvent)
		}
		failing := session.View{Version: 3, SessionID: "0123456789", Phase: session.PhasePolling, Failures: 2, Err: errors.New("boom")}
		state = Reduce(state, failing, now)
		if !strings.Contains(state.LastEvent, "poll failed (2)") || state.Err != "boom" {
			t.Fatalf("unexpected failure event %q err %q", state.LastEvent, state.Err)
		}
		stalled := failing
		stalled.Version = 4
		stalled.Phase = session.PhaseStalled
		stalled.Failures = 3
		state = Reduce(state, stalled, now)
		if state.LastEvent != "polling stalled after 3 failures" {
			t.Fatalf("unexpected stall event %q", state.LastEvent)
		}
	})
}

// TestRenderSummaryHidesEmptyStats verifies zeros are not shown before results.
func TestRenderSummaryHidesEmptyStats(t *testing.T) {
	if got := renderSummary(State{}, true); got != "No results yet" {
		t.Fatalf("unexpected empty summary %q", got)
	}
	state := State{Summary: aggregate.Summary{
		Available: true, Total: 3, SuccessCount: 2, ErrorCount: 1, AvgDuration: 1,
		HasToolCallStats: true, ToolCallProbabilityPct: 33, TotalToolCalls: 2,
	}}
	got := renderSummary(state, true)
	want := "Total: 3 Success: 2 Error: 1 Avg: 1.00s Tools: 33% (2 calls)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// TestModelAppliesEvents verifies the Bubble Tea model consumes events.
func TestModelAppliesEvents(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		events := make(chan Event)
		model := NewModel(events, Options{NoColor: true})
		next, _ := model.Update(EventMsg{Event: Event{Kind: EventStart, Model: "qwen3-coder-plus", Count: 3}})
		model = next.(Model)
		records := decode(testutil.SuccessResult(1, "hello", 1))
		polling := view(1, session.PhasePolling, records)
		polling.SessionID = "abcdef123456"
		polling.Completed, polling.Total, polling.ProgressPct = 1, 3, 33
		next, _ = model.Update(EventMsg{Event: Event{Kind: EventView, View: polling}})
		model = next.(Model)

		out := model.View()
		for _, want := range []string{"Session abcdef12", "Model: qwen3-coder-plus", "1/3 (33%)", "hello", "#01"} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %q in view:\n%s", want, out)
			}
		}
		if model.State().Requested != 3 {
			t.Fatalf("expected requested count, got %d", model.State().Requested)
		}
	})
}

// TestModelQuitKey verifies q exits the program.
func TestModelQuitKey(t *testing.T) {
	model := NewModel(nil, Options{NoColor: true})
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}

// TestFormatText verifies rune-aware truncation.
func TestFormatText(t *testing.T) {
	long := strings.Repeat("你", 10)
	if got := formatText(long, 6); got != "你你你..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := formatText("a\n  b", 10); got != "a b" {
		t.Fatalf("unexpected whitespace collapse %q", got)
	}
}

// TestColumnsForWidth verifies the response column absorbs spare width.
func TestColumnsForWidth(t *testing.T) {
	narrow := columnsForWidth(40)
	wide := columnsForWidth(200)
	if narrow[4].Title != "Response" || narrow[4].Width != 16 {
		t.Fatalf("expected minimum response width, got %+v", narrow[4])
	}
	if wide[4].Width <= narrow[4].Width {
		t.Fatalf("expected wider response column")
	}
}

func decode(raws ...tester.RawResult) []normalize.Record {
	return normalize.DecodeAll(raws)
}

func view(version uint64, phase session.Phase, records []normalize.Record) session.View {
	return session.View{
		Version: version,
		Phase:   phase,
		Records: records,
		Summary: aggregate.Summarize(records),
	}
}

// runWithTimeout executes a test body with a timeout.
func runWithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	ctx := testutil.Context(t, timeout)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("test timed out")
	}
}
