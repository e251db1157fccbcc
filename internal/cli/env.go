package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"reqtester/internal/config"
	"reqtester/internal/logging"
	"reqtester/internal/registry"
	"reqtester/internal/request"
	"reqtester/internal/session"
	"reqtester/pkg/tester/httpclient"
)

// commonFlags are accepted by every command that talks to the backend.
type commonFlags struct {
	configPath string
	envFile    string
	baseURL    string
	logLevel   string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	flags := &commonFlags{}
	fs.StringVar(&flags.configPath, "config", "", "Path to config file (default: discover .reqtester/config.yml)")
	fs.StringVar(&flags.envFile, "env-file", "", "Path to a dotenv file (default: ./.env)")
	fs.StringVar(&flags.baseURL, "base-url", "", "Backend base URL override")
	fs.StringVar(&flags.logLevel, "log-level", "", "Log level override (debug|info|warn|error)")
	return flags
}

// environment holds what a command needs to reach the backend.
type environment struct {
	cfg     config.Config
	backend *httpclient.Client
	logger  *zap.Logger
	logFile *os.File
}

// openEnvironment loads configuration and builds the backend client and
// logger. See startLogging for where logs go.
func openEnvironment(flags *commonFlags, logSink io.Writer) (*environment, error) {
	env, err := loadEnvironment(flags)
	if err != nil {
		return nil, err
	}
	if err := env.startLogging(logSink); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// loadEnvironment loads configuration and builds the backend client. The
// logger discards everything until startLogging is called.
func loadEnvironment(flags *commonFlags) (*environment, error) {
	cfg, err := config.LoadWith(config.Options{Path: flags.configPath, EnvFile: flags.envFile})
	if err != nil {
		return nil, err
	}
	if url := strings.TrimSpace(flags.baseURL); url != "" {
		cfg.Server.BaseURL = strings.TrimRight(url, "/")
	}
	if level := strings.TrimSpace(flags.logLevel); level != "" {
		cfg.Log.Level = level
	}
	return &environment{
		cfg:     cfg,
		backend: httpclient.NewWithTimeout(cfg.Server.BaseURL, cfg.Server.RequestTimeout),
		logger:  zap.NewNop(),
	}, nil
}

// startLogging sends logs to cfg.Log.File when set, otherwise to sink,
// which may be nil to discard them.
func (e *environment) startLogging(sink io.Writer) error {
	writer := sink
	if e.cfg.Log.File != "" {
		file, err := logging.OpenFile(e.cfg.Log.File)
		if err != nil {
			return err
		}
		e.logFile = file
		writer = file
	}
	logger, err := logging.New(logging.Options{Name: "reqtester", Level: e.cfg.Log.Level, Writer: writer})
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	e.logger = logger
	return nil
}

// Close flushes the logger and releases the log file.
func (e *environment) Close() {
	if e == nil {
		return
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}

// policy maps polling config onto the controller retry policy.
func (e *environment) policy() session.Policy {
	return session.Policy{
		PollInterval:  e.cfg.Polling.Interval,
		ErrorInterval: e.cfg.Polling.ErrorInterval,
		MaxFailures:   e.cfg.Polling.MaxFailures,
		MaxElapsed:    e.cfg.Polling.MaxElapsed,
	}
}

// controller builds a session controller publishing to observer.
func (e *environment) controller(observer session.Observer) (*session.Controller, error) {
	return session.New(session.Options{
		Backend:  e.backend,
		Registry: registry.New(e.backend),
		Observer: observer,
		Logger:   e.logger.Named("session"),
		Policy:   e.policy(),
		Limits:   request.Limits{MaxCount: e.cfg.Defaults.MaxCount},
	})
}

// commandContext is cancelled on interrupt or termination.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
