package registry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reqtester/internal/testutil"
	"reqtester/pkg/tester"
	"reqtester/pkg/tester/httpclient"
)

func newRegistry(t *testing.T) (*Registry, *testutil.FakeBackend) {
	t.Helper()
	server := testutil.StartBackend(t, nil)
	return New(httpclient.New(server.BaseURL)), server.Backend
}

// TestDeleteAllContinuesAfterFailure verifies a partial failure does not abort the sweep.
func TestDeleteAllContinuesAfterFailure(t *testing.T) {
	reg, backend := newRegistry(t)
	backend.AddSession("s1", tester.StatusCompleted)
	backend.AddSession("s2", tester.StatusCompleted)
	backend.AddSession("s3", tester.StatusCompleted)
	backend.FailDelete("s2")

	report, err := reg.DeleteAll(testutil.Context(t, 2*time.Second))
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if got := strings.Join(report.Attempted, ","); got != "s1,s2,s3" {
		t.Fatalf("expected all sessions attempted, got %s", got)
	}
	if got := strings.Join(report.Deleted, ","); got != "s1,s3" {
		t.Fatalf("expected s1 and s3 deleted, got %s", got)
	}
	if len(report.Failed) != 1 || report.Failed[0].SessionID != "s2" {
		t.Fatalf("expected s2 failure, got %+v", report.Failed)
	}
	reportErr := report.Err()
	var deleteAllErr *DeleteAllError
	if !errors.As(reportErr, &deleteAllErr) {
		t.Fatalf("expected DeleteAllError, got %v", reportErr)
	}
	if !strings.Contains(reportErr.Error(), "1 of 3") || !strings.Contains(reportErr.Error(), "s2") {
		t.Fatalf("unexpected error text: %q", reportErr.Error())
	}
	if ids := backend.SessionIDs(); len(ids) != 1 || ids[0] != "s2" {
		t.Fatalf("expected only s2 to remain, got %v", ids)
	}
}

// TestDeleteAllListFailure surfaces list errors without deleting anything.
func TestDeleteAllListFailure(t *testing.T) {
	reg, backend := newRegistry(t)
	backend.AddSession("s1", tester.StatusCompleted)
	backend.FailSessions(true)

	if _, err := reg.DeleteAll(testutil.Context(t, time.Second)); err == nil {
		t.Fatalf("expected list failure")
	}
	if deletes := backend.Deletes(); len(deletes) != 0 {
		t.Fatalf("expected no deletes, got %v", deletes)
	}
}

// TestDeleteAllCancelledContext records remaining sessions as failed.
func TestDeleteAllCancelledContext(t *testing.T) {
	store := &stubStore{sessions: []tester.SessionSummary{{SessionID: "a"}, {SessionID: "b"}}}
	ctx, cancel := context.WithCancel(context.Background())
	store.onDelete = func(string) { cancel() }
	report, err := New(store).DeleteAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Deleted) != 1 || len(report.Failed) != 1 || report.Failed[0].SessionID != "b" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Attempted) != 1 || len(report.Skipped) != 1 || report.Total() != 2 {
		t.Fatalf("expected one attempted and one skipped of two, got %+v", report)
	}
	if msg := report.Err().Error(); !strings.HasPrefix(msg, "1 of 2 sessions not deleted") {
		t.Fatalf("unexpected error text: %q", msg)
	}
}

// TestGetAndDeleteValidateID rejects blank ids locally.
func TestGetAndDeleteValidateID(t *testing.T) {
	reg := New(&stubStore{})
	if _, err := reg.Get(context.Background(), " "); err == nil {
		t.Fatalf("expected get error")
	}
	if err := reg.Delete(context.Background(), ""); err == nil {
		t.Fatalf("expected delete error")
	}
}

// TestDeleteReportNoFailures returns a nil error.
func TestDeleteReportNoFailures(t *testing.T) {
	if err := (DeleteReport{Attempted: []string{"a"}, Deleted: []string{"a"}}).Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

type stubStore struct {
	sessions []tester.SessionSummary
	onDelete func(string)
}

func (s *stubStore) Results(context.Context, string) (tester.ResultsResponse, error) {
	return tester.ResultsResponse{}, nil
}

func (s *stubStore) Sessions(context.Context) ([]tester.SessionSummary, error) {
	return s.sessions, nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	if s.onDelete != nil {
		s.onDelete(id)
	}
	return nil
}
