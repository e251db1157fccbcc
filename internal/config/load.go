package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REQTESTER_"

// Options controls where configuration is read from.
type Options struct {
	// Path is an explicit config file; a missing explicit file is an error.
	// Empty means discover upward from StartDir and fall back to defaults.
	Path     string
	StartDir string
	// EnvFile is a dotenv file whose values apply below the real environment.
	// Empty means .env in the working directory, if present.
	EnvFile string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load reads the config at path, or discovers one when path is empty.
func Load(path string) (Config, error) {
	return LoadWith(Options{Path: path})
}

// LoadWith reads configuration from file, dotenv and environment, then
// validates the result.
func LoadWith(opts Options) (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		found, err := FindConfigPath(opts.StartDir)
		switch {
		case err == nil:
			path = found
		case errors.Is(err, ErrConfigNotFound):
		default:
			return Config{}, err
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	}

	getenv, err := envLookup(opts)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envLookup layers the real environment over the dotenv file.
func envLookup(opts Options) (func(string) string, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	envFile := opts.EnvFile
	explicit := envFile != ""
	if !explicit {
		envFile = EnvFileName
	}
	values, err := godotenv.Read(envFile)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return getenv, nil
		}
		return nil, errors.Wrapf(err, "read env file %s", envFile)
	}
	return func(key string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return values[key]
	}, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	var issues []Issue
	str := func(key string, target *string) {
		if value := strings.TrimSpace(getenv(EnvPrefix + key)); value != "" {
			*target = value
		}
	}
	dur := func(key string, target *time.Duration) {
		value := strings.TrimSpace(getenv(EnvPrefix + key))
		if value == "" {
			return
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			issues = append(issues, Issue{Field: EnvPrefix + key, Message: "invalid duration " + strconv.Quote(value)})
			return
		}
		*target = parsed
	}
	num := func(key string, target *int) {
		value := strings.TrimSpace(getenv(EnvPrefix + key))
		if value == "" {
			return
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			issues = append(issues, Issue{Field: EnvPrefix + key, Message: "invalid integer " + strconv.Quote(value)})
			return
		}
		*target = parsed
	}
	float := func(key string, target *float64) {
		value := strings.TrimSpace(getenv(EnvPrefix + key))
		if value == "" {
			return
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			issues = append(issues, Issue{Field: EnvPrefix + key, Message: "invalid number " + strconv.Quote(value)})
			return
		}
		*target = parsed
	}

	str("BASE_URL", &cfg.Server.BaseURL)
	dur("REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	dur("POLL_INTERVAL", &cfg.Polling.Interval)
	dur("ERROR_INTERVAL", &cfg.Polling.ErrorInterval)
	num("MAX_FAILURES", &cfg.Polling.MaxFailures)
	dur("MAX_ELAPSED", &cfg.Polling.MaxElapsed)
	str("MODEL", &cfg.Defaults.Model)
	float("TEMPERATURE", &cfg.Defaults.Temperature)
	num("MAX_TOKENS", &cfg.Defaults.MaxTokens)
	num("MAX_COUNT", &cfg.Defaults.MaxCount)
	str("UI", &cfg.UI.Mode)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	str("EXPORT_DB", &cfg.Export.DBPath)
	if value := strings.TrimSpace(getenv("NO_COLOR")); value != "" {
		cfg.UI.NoColor = true
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Server.BaseURL), "/")
	cfg.Defaults.Model = strings.TrimSpace(cfg.Defaults.Model)
	cfg.UI.Mode = strings.ToLower(strings.TrimSpace(cfg.UI.Mode))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = "auto"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Polling.ErrorInterval == 0 {
		cfg.Polling.ErrorInterval = 2 * cfg.Polling.Interval
	}
}
