package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds backend round trips in tests that pass no timeout.
const DefaultTimeout = 5 * time.Second

// Context returns a context cancelled at test cleanup. The timeout is
// shortened to leave a second before the test binary's own deadline so a
// hung poll chain fails with a message instead of a panic dump.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if limit, ok := deadlineMargin(t); ok && limit.Before(deadline) {
		deadline = limit
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	t.Cleanup(cancel)
	return ctx
}

// deadlineMargin returns a second before the test binary's deadline. Only
// *testing.T exposes one; benchmarks and fuzz targets have none.
func deadlineMargin(t testing.TB) (time.Time, bool) {
	dt, ok := t.(interface{ Deadline() (time.Time, bool) })
	if !ok {
		return time.Time{}, false
	}
	testDeadline, ok := dt.Deadline()
	if !ok {
		return time.Time{}, false
	}
	limit := testDeadline.Add(-time.Second)
	return limit, limit.After(time.Now())
}
