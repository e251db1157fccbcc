package live

import (
	"time"

	"reqtester/internal/aggregate"
	"reqtester/internal/session"
	"reqtester/pkg/tester"
)

// ResultRow holds display state for one repetition.
type ResultRow struct {
	Index       int
	Success     bool
	Duration    float64
	HasDuration bool
	Tokens      int
	HasTokens   bool
	Text        string
	Fallback    bool
	Tools       []string
}

// State captures the live UI state for one session.
type State struct {
	Version     uint64
	SessionID   string
	Model       string
	Requested   int
	Phase       session.Phase
	Status      tester.SessionStatus
	Completed   int
	Total       int
	ProgressPct int
	Summary     aggregate.Summary
	Failures    int
	Err         string
	Sessions    int
	StartedAt   time.Time
	FinishedAt  time.Time
	LastEvent   string
	Rows        []ResultRow
}
