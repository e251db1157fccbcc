package testutil

import (
	"testing"
	"time"
)

// Eventually polls fn until it returns true or timeout elapses.
func Eventually(t testing.TB, timeout, interval time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.After(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if fn() {
			return
		}
		select {
		case <-deadline:
			if msg == "" {
				t.Fatalf("condition not met before timeout")
			}
			t.Fatalf("%s", msg)
		case <-ticker.C:
		}
	}
}

// Never asserts fn stays false for the whole window.
func Never(t testing.TB, window, interval time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.After(window)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if fn() {
			if msg == "" {
				t.Fatalf("condition unexpectedly met")
			}
			t.Fatalf("%s", msg)
		}
		select {
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}
