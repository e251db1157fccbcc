package testutil

import (
	"testing"
	"time"
)

// plainTB hides *testing.T's Deadline method.
type plainTB struct {
	testing.TB
}

func TestContextAppliesTimeout(t *testing.T) {
	start := time.Now()
	ctx := Context(t, 200*time.Millisecond)
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatalf("expected a deadline")
	}
	if deadline.Sub(start) > 200*time.Millisecond+50*time.Millisecond {
		t.Fatalf("expected deadline near 200ms, got %s", deadline.Sub(start))
	}
}

func TestContextWithoutTestDeadline(t *testing.T) {
	if _, ok := deadlineMargin(plainTB{TB: t}); ok {
		t.Fatalf("expected no margin without a Deadline method")
	}
	ctx := Context(plainTB{TB: t}, 0)
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatalf("expected a deadline")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", remaining)
	}
	select {
	case <-ctx.Done():
		t.Fatalf("context cancelled early")
	default:
	}
}
