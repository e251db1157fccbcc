package config

import "time"

// Config is the client configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Polling  PollingConfig  `yaml:"polling"`
	Defaults DefaultsConfig `yaml:"defaults"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`
	Export   ExportConfig   `yaml:"export"`
}

// ServerConfig locates the test-runner backend.
type ServerConfig struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

// PollingConfig controls result polling. One of max_failures and
// max_elapsed must stay positive.
type PollingConfig struct {
	Interval      time.Duration `yaml:"interval" validate:"gt=0"`
	ErrorInterval time.Duration `yaml:"error_interval" validate:"gte=0"`
	MaxFailures   int           `yaml:"max_failures" validate:"required_without=MaxElapsed,gte=0"`
	MaxElapsed    time.Duration `yaml:"max_elapsed" validate:"required_without=MaxFailures,gte=0"`
}

// DefaultsConfig seeds request parameters the user leaves unset.
type DefaultsConfig struct {
	Model       string  `yaml:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=1"`
	MaxCount    int     `yaml:"max_count" validate:"gte=1"`
}

// UIConfig selects the presentation mode.
type UIConfig struct {
	Mode    string `yaml:"mode" validate:"oneof=auto live plain"`
	NoColor bool   `yaml:"no_color"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// File receives logs; empty means stderr in plain mode and nowhere in live mode.
	File string `yaml:"file"`
}

// ExportConfig controls DuckDB exports.
type ExportConfig struct {
	DBPath string `yaml:"db_path" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8005",
			RequestTimeout: 300 * time.Second,
		},
		Polling: PollingConfig{
			Interval:      time.Second,
			ErrorInterval: 2 * time.Second,
			MaxFailures:   30,
			MaxElapsed:    2 * time.Minute,
		},
		Defaults: DefaultsConfig{
			Model:       "qwen3-coder-plus",
			Temperature: 0.7,
			MaxTokens:   2000,
			MaxCount:    20,
		},
		UI:     UIConfig{Mode: "auto"},
		Log:    LogConfig{Level: "info"},
		Export: ExportConfig{DBPath: "reqtester.duckdb"},
	}
}
