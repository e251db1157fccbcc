package session

import (
	"time"

	"reqtester/internal/aggregate"
	"reqtester/internal/normalize"
	"reqtester/pkg/tester"
)

// Phase is the controller-side lifecycle of the current session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseLoading    Phase = "loading"
	PhasePolling    Phase = "polling"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
	// PhaseStalled means polling gave up after repeated fetch failures.
	// The session may still be running on the backend.
	PhaseStalled Phase = "stalled"
)

// Terminal reports whether no poll chain follows this phase.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseFailed, PhaseStalled:
		return true
	default:
		return false
	}
}

// View is an immutable snapshot of controller state for presentation.
type View struct {
	// Version increases with every published snapshot.
	Version uint64

	SessionID   string
	Status      tester.SessionStatus
	Phase       Phase
	Completed   int
	Total       int
	ProgressPct int
	Summary     aggregate.Summary
	Records     []normalize.Record

	// Failures counts consecutive poll failures of the live chain.
	Failures int
	Err      error

	Sessions    []tester.SessionSummary
	SessionsErr error

	UpdatedAt time.Time
}

// Running reports whether a poll chain is expected to publish again.
func (v View) Running() bool {
	return v.Phase == PhaseSubmitting || v.Phase == PhaseLoading || v.Phase == PhasePolling
}

// ShortID returns the first eight characters of the session id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func (v View) clone() View {
	out := v
	if v.Records != nil {
		out.Records = append([]normalize.Record(nil), v.Records...)
	}
	if v.Sessions != nil {
		out.Sessions = append([]tester.SessionSummary(nil), v.Sessions...)
	}
	return out
}

// resetResults clears per-session state but keeps the session list.
func (v *View) resetResults() {
	v.SessionID = ""
	v.Status = ""
	v.Phase = PhaseIdle
	v.Completed = 0
	v.Total = 0
	v.ProgressPct = 0
	v.Summary = aggregate.Summary{}
	v.Records = nil
	v.Failures = 0
	v.Err = nil
}
