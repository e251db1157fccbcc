package plain

import (
	"fmt"
	"io"
	"sync"

	"reqtester/internal/session"
)

// Progress prints one line whenever the visible session state changes.
// It implements session.Observer.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	version uint64
	last    string
}

// NewProgress builds a progress printer.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

// Publish prints the snapshot unless it is stale or unchanged.
func (p *Progress) Publish(view session.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view.Version != 0 && view.Version <= p.version {
		return
	}
	p.version = view.Version
	line := progressLine(view)
	if line == "" || line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.w, line)
}

func progressLine(view session.View) string {
	id := session.ShortID(view.SessionID)
	switch view.Phase {
	case session.PhaseSubmitting:
		return fmt.Sprintf("submitting %d requests", view.Total)
	case session.PhaseLoading:
		return fmt.Sprintf("[%s] loading", id)
	case session.PhasePolling:
		if view.Failures > 0 && view.Err != nil {
			return fmt.Sprintf("[%s] poll failed (%d): %v", id, view.Failures, view.Err)
		}
		return fmt.Sprintf("[%s] running %d/%d (%d%%)", id, view.Completed, view.Total, view.ProgressPct)
	case session.PhaseCompleted:
		return fmt.Sprintf("[%s] completed %d/%d", id, view.Completed, view.Total)
	case session.PhaseFailed:
		if view.Err != nil {
			return fmt.Sprintf("[%s] failed: %v", id, view.Err)
		}
		return fmt.Sprintf("[%s] failed %d/%d", id, view.Completed, view.Total)
	case session.PhaseStalled:
		return fmt.Sprintf("[%s] stalled after %d failures: %v", id, view.Failures, view.Err)
	default:
		return ""
	}
}

var _ session.Observer = (*Progress)(nil)
