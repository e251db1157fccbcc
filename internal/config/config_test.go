package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func noEnv(string) string { return "" }

func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	writeFile(t, path, "")
	return path
}

func TestLoadDefaultsWhenNoConfigFound(t *testing.T) {
	cfg, err := LoadWith(Options{StartDir: t.TempDir(), EnvFile: emptyEnvFile(t), Getenv: noEnv})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, ConfigPath(root), `
server:
  base_url: http://tester.internal:9000/
polling:
  interval: 250ms
defaults:
  model: gpt-4o-mini
  max_count: 10
ui:
  mode: Plain
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := LoadWith(Options{StartDir: nested, EnvFile: emptyEnvFile(t), Getenv: noEnv})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.BaseURL != "http://tester.internal:9000" {
		t.Fatalf("expected trimmed base url, got %q", cfg.Server.BaseURL)
	}
	if cfg.Polling.Interval != 250*time.Millisecond {
		t.Fatalf("expected 250ms interval, got %s", cfg.Polling.Interval)
	}
	if cfg.Polling.ErrorInterval != 2*time.Second {
		t.Fatalf("expected default error interval kept, got %s", cfg.Polling.ErrorInterval)
	}
	if cfg.Defaults.Model != "gpt-4o-mini" || cfg.Defaults.MaxCount != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg.Defaults)
	}
	if cfg.UI.Mode != "plain" {
		t.Fatalf("expected normalized ui mode, got %q", cfg.UI.Mode)
	}
}

func TestLoadEnvOverridesFileAndDotenv(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "custom.yml")
	writeFile(t, path, "defaults:\n  model: from-file\n")
	envFile := filepath.Join(root, ".env")
	writeFile(t, envFile, "REQTESTER_MODEL=from-dotenv\nREQTESTER_LOG_LEVEL=debug\n")

	env := map[string]string{"REQTESTER_MODEL": "from-env", "REQTESTER_POLL_INTERVAL": "3s"}
	cfg, err := LoadWith(Options{Path: path, EnvFile: envFile, Getenv: func(key string) string { return env[key] }})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Defaults.Model != "from-env" {
		t.Fatalf("expected env to win, got %q", cfg.Defaults.Model)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected dotenv value, got %q", cfg.Log.Level)
	}
	if cfg.Polling.Interval != 3*time.Second {
		t.Fatalf("expected env interval, got %s", cfg.Polling.Interval)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := LoadWith(Options{Path: filepath.Join(t.TempDir(), "missing.yml"), EnvFile: emptyEnvFile(t), Getenv: noEnv})
	if err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoadReportsAllIssues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	writeFile(t, path, `
server:
  base_url: not a url
defaults:
  model: ""
  temperature: 3
ui:
  mode: fancy
log:
  level: trace
`)
	_, err := LoadWith(Options{Path: path, EnvFile: emptyEnvFile(t), Getenv: noEnv})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"server.base_url", "defaults.model", "defaults.temperature", "ui.mode", "log.level"} {
		if !verr.Has(field) {
			t.Fatalf("expected issue for %s, got %+v", field, verr.Issues)
		}
	}
}

func TestLoadRejectsUnboundedPolling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unbounded.yml")
	writeFile(t, path, `
polling:
  max_failures: 0
  max_elapsed: 0s
`)
	_, err := LoadWith(Options{Path: path, EnvFile: emptyEnvFile(t), Getenv: noEnv})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("polling.max_failures") || !verr.Has("polling.max_elapsed") {
		t.Fatalf("expected both polling limits flagged, got %+v", verr.Issues)
	}

	writeFile(t, path, `
polling:
  max_failures: 0
  max_elapsed: 30s
`)
	cfg, err := LoadWith(Options{Path: path, EnvFile: emptyEnvFile(t), Getenv: noEnv})
	if err != nil {
		t.Fatalf("expected one limit to suffice, got %v", err)
	}
	if cfg.Polling.MaxFailures != 0 || cfg.Polling.MaxElapsed != 30*time.Second {
		t.Fatalf("unexpected polling config %+v", cfg.Polling)
	}
}

func TestLoadRejectsBadEnvValues(t *testing.T) {
	env := map[string]string{"REQTESTER_MAX_COUNT": "many", "REQTESTER_POLL_INTERVAL": "soon"}
	_, err := LoadWith(Options{StartDir: t.TempDir(), EnvFile: emptyEnvFile(t), Getenv: func(key string) string { return env[key] }})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("REQTESTER_MAX_COUNT") || !verr.Has("REQTESTER_POLL_INTERVAL") {
		t.Fatalf("unexpected issues: %+v", verr.Issues)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	writeFile(t, path, "server: [")
	if _, err := LoadWith(Options{Path: path, EnvFile: emptyEnvFile(t), Getenv: noEnv}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFindConfigPathNotFound(t *testing.T) {
	_, err := FindConfigPath(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}
