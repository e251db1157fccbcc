package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"

	"reqtester/pkg/tester"
)

// Store is the subset of the backend used for session bookkeeping.
type Store interface {
	Results(ctx context.Context, sessionID string) (tester.ResultsResponse, error)
	Sessions(ctx context.Context) ([]tester.SessionSummary, error)
	Delete(ctx context.Context, sessionID string) error
}

// Registry lists, fetches and deletes sessions held by the backend.
type Registry struct {
	store Store
}

// New constructs a registry over a backend store.
func New(store Store) *Registry {
	return &Registry{store: store}
}

// List returns the backend's sessions in backend order.
func (r *Registry) List(ctx context.Context) ([]tester.SessionSummary, error) {
	sessions, err := r.store.Sessions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	return sessions, nil
}

// Get fetches the current result payload for a session.
func (r *Registry) Get(ctx context.Context, sessionID string) (tester.ResultsResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return tester.ResultsResponse{}, errors.New("session id is required")
	}
	res, err := r.store.Results(ctx, sessionID)
	if err != nil {
		return tester.ResultsResponse{}, errors.Wrapf(err, "get session %s", sessionID)
	}
	return res, nil
}

// Delete removes one session.
func (r *Registry) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session id is required")
	}
	if err := r.store.Delete(ctx, sessionID); err != nil {
		return errors.Wrapf(err, "delete session %s", sessionID)
	}
	return nil
}

// DeleteFailure records one failed deletion.
type DeleteFailure struct {
	SessionID string
	Err       error
}

// DeleteReport describes the outcome of a bulk deletion. Sessions left
// untouched because the context ended are listed in Skipped and also
// reported as failures.
type DeleteReport struct {
	Attempted []string
	Skipped   []string
	Deleted   []string
	Failed    []DeleteFailure
}

// Total is the number of sessions the sweep covered.
func (r DeleteReport) Total() int {
	return len(r.Attempted) + len(r.Skipped)
}

// Err aggregates failures into one error, or nil when all deletes succeeded.
func (r DeleteReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return &DeleteAllError{Failed: r.Failed, Total: r.Total()}
}

// DeleteAllError reports a partially cleared registry.
type DeleteAllError struct {
	Failed []DeleteFailure
	Total  int
}

// Error renders each failed session on its own line.
func (e *DeleteAllError) Error() string {
	lines := make([]string, 0, len(e.Failed)+1)
	lines = append(lines, fmt.Sprintf("%d of %d sessions not deleted", len(e.Failed), e.Total))
	for _, failure := range e.Failed {
		lines = append(lines, fmt.Sprintf("%s: %v", failure.SessionID, failure.Err))
	}
	return strings.Join(lines, "\n")
}

// DeleteAll lists sessions then deletes them one by one. It is not atomic:
// a failure is recorded and the remaining sessions are still attempted.
// The returned error is non-nil only when listing fails.
func (r *Registry) DeleteAll(ctx context.Context) (DeleteReport, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return DeleteReport{}, err
	}
	var report DeleteReport
	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			report.Skipped = append(report.Skipped, session.SessionID)
			report.Failed = append(report.Failed, DeleteFailure{SessionID: session.SessionID, Err: err})
			continue
		}
		report.Attempted = append(report.Attempted, session.SessionID)
		if err := r.Delete(ctx, session.SessionID); err != nil {
			report.Failed = append(report.Failed, DeleteFailure{SessionID: session.SessionID, Err: err})
			continue
		}
		report.Deleted = append(report.Deleted, session.SessionID)
	}
	return report, nil
}
