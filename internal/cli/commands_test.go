package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"reqtester/internal/testutil"
	"reqtester/pkg/tester"
)

// TestSessionsListsBackendSessions verifies the session table.
func TestSessionsListsBackendSessions(t *testing.T) {
	server := testutil.StartBackend(t, nil)
	cfgPath := writeConfig(t, server.BaseURL)

	code, stdout, _ := runCLI(t, "sessions", "--config", cfgPath)
	if code != ExitOK || !strings.Contains(stdout, "No sessions.") {
		t.Fatalf("expected empty list, got %d %q", code, stdout)
	}

	server.Backend.AddSession("s-1", tester.StatusCompleted, testutil.CompletedResponse(2))
	server.Backend.AddSession("s-2", tester.StatusRunning)
	code, stdout, _ = runCLI(t, "sessions", "--config", cfgPath)
	if code != ExitOK {
		t.Fatalf("unexpected exit %d", code)
	}
	for _, want := range []string{"s-1", "s-2", "completed", "running"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}

	server.Backend.FailSessions(true)
	code, _, stderr := runCLI(t, "sessions", "--config", cfgPath)
	if code != ExitError || !strings.Contains(stderr, "Failed to list sessions") {
		t.Fatalf("expected list failure, got %d %q", code, stderr)
	}
}

// TestShowRendersSession verifies a one-shot show of a finished session.
func TestShowRendersSession(t *testing.T) {
	server := testutil.StartBackend(t, nil)
	server.Backend.AddSession("s-1", tester.StatusCompleted, finalResults())
	cfgPath := writeConfig(t, server.BaseURL)

	code, stdout, stderr := runCLI(t, "show", "--config", cfgPath, "s-1")
	if code != ExitOK {
		t.Fatalf("unexpected exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"Session s-1 (completed)", "Tool-call probability", "33%", "timeout"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}

	code, _, stderr = runCLI(t, "show", "--config", cfgPath, "missing")
	if code != ExitError || !strings.Contains(stderr, "Failed to load session") {
		t.Fatalf("expected missing session error, got %d %q", code, stderr)
	}

	code, _, _ = runCLI(t, "show", "--config", cfgPath)
	if code != ExitUsage {
		t.Fatalf("expected usage exit without id, got %d", code)
	}
}

// TestShowWatchFollowsRunningSession verifies --watch polls until completion.
func TestShowWatchFollowsRunningSession(t *testing.T) {
	server := testutil.StartBackend(t, nil)
	server.Backend.AddSession("abcdef123456", tester.StatusRunning,
		testutil.RunningResponse(1, 3, testutil.SuccessResult(1, "hello", 1)),
		finalResults(),
	)
	cfgPath := writeConfig(t, server.BaseURL)

	code, stdout, stderr := runCLI(t, "show", "--config", cfgPath, "--watch", "abcdef123456")
	if code != ExitOK {
		t.Fatalf("unexpected exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"[abcdef12] running 1/3 (33%)", "[abcdef12] completed 3/3", "Session abcdef123456 (completed)"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}
	if gets := server.Backend.ResultGets("abcdef123456"); gets < 2 {
		t.Fatalf("expected at least two polls, got %d", gets)
	}
}

// TestDeleteRemovesSessions verifies per-id deletion and failure reporting.
func TestDeleteRemovesSessions(t *testing.T) {
	server := testutil.StartBackend(t, nil)
	server.Backend.AddSession("s-1", tester.StatusCompleted)
	server.Backend.AddSession("s-2", tester.StatusCompleted)
	server.Backend.FailDelete("s-2")
	cfgPath := writeConfig(t, server.BaseURL)

	code, stdout, stderr := runCLI(t, "delete", "--config", cfgPath, "s-1", "s-2")
	if code != ExitError {
		t.Fatalf("expected error exit, got %d", code)
	}
	if !strings.Contains(stdout, "Deleted s-1") || !strings.Contains(stderr, "Failed to delete s-2") {
		t.Fatalf("unexpected output stdout=%q stderr=%q", stdout, stderr)
	}
	if ids := server.Backend.SessionIDs(); len(ids) != 1 || ids[0] != "s-2" {
		t.Fatalf("expected only s-2 to remain, got %v", ids)
	}

	code, _, _ = runCLI(t, "delete", "--config", cfgPath)
	if code != ExitUsage {
		t.Fatalf("expected usage exit without ids, got %d", code)
	}
}

// TestClearContinuesPastFailures verifies clear attempts every session.
func TestClearContinuesPastFailures(t *testing.T) {
	server := testutil.StartBackend(t, nil)
	for _, id := range []string{"s-1", "s-2", "s-3"} {
		server.Backend.AddSession(id, tester.StatusCompleted)
	}
	server.Backend.FailDelete("s-2")
	cfgPath := writeConfig(t, server.BaseURL)

	code, stdout, stderr := runCLI(t, "clear", "--config", cfgPath)
	if code != ExitError {
		t.Fatalf("expected error exit, got %d", code)
	}
	if !strings.Contains(stdout, "Deleted 2 of 3 sessions") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "Failed to delete s-2") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
	if deletes := server.Backend.Deletes(); len(deletes) != 3 || deletes[2] != "s-3" {
		t.Fatalf("expected all three deletes attempted, got %v", deletes)
	}

	empty := testutil.StartBackend(t, nil)
	code, stdout, _ = runCLI(t, "clear", "--config", writeConfig(t, empty.BaseURL))
	if code != ExitOK || !strings.Contains(stdout, "No sessions to delete.") {
		t.Fatalf("expected empty clear, got %d %q", code, stdout)
	}
}

// TestExportCommandWritesDuckDB verifies export of an existing session.
func TestExportCommandWritesDuckDB(t *testing.T) {
	server := testutil.StartBackend(t, nil)
	server.Backend.AddSession("s-1", tester.StatusCompleted, finalResults())
	cfgPath := writeConfig(t, server.BaseURL)
	dbPath := filepath.Join(t.TempDir(), "export.duckdb")

	code, stdout, stderr := runCLI(t, "export", "--config", cfgPath, "--db", dbPath, "s-1")
	if code != ExitOK {
		t.Fatalf("unexpected exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Exported session s-1 to "+dbPath) {
		t.Fatalf("unexpected output %q", stdout)
	}

	code, _, _ = runCLI(t, "export", "--config", cfgPath, "--db", dbPath, "missing")
	if code != ExitError {
		t.Fatalf("expected error for missing session, got %d", code)
	}
}

// TestInfoShowsBackendDefaults verifies info output and fallbacks.
func TestInfoShowsBackendDefaults(t *testing.T) {
	server := testutil.StartBackend(t, nil)
	cfgPath := writeConfig(t, server.BaseURL)

	code, stdout, stderr := runCLI(t, "info", "--config", cfgPath)
	if code != ExitOK {
		t.Fatalf("unexpected exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{
		"Backend: " + server.BaseURL,
		"Health: ok (version 1.0.0",
		"Default model: qwen3-coder-plus",
		"System prompt: 你是一个智能助手",
		"Max request count",
		"gpt-4o-mini",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}

	server.Close()
	code, stdout, _ = runCLI(t, "info", "--config", cfgPath)
	if code != ExitError {
		t.Fatalf("expected error exit with backend down, got %d", code)
	}
	if !strings.Contains(stdout, "Default model: qwen3-coder-plus (fallback)") || !strings.Contains(stdout, "System prompt: 默认系统提示词") {
		t.Fatalf("expected fallbacks, got:\n%s", stdout)
	}
}

// TestBadConfigFails verifies config errors surface before any request.
func TestBadConfigFails(t *testing.T) {
	code, _, stderr := runCLI(t, "sessions", "--config", filepath.Join(t.TempDir(), "missing.yml"))
	if code != ExitError || !strings.Contains(stderr, "Failed to load config") {
		t.Fatalf("expected config failure, got %d %q", code, stderr)
	}
}
