package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Laisky/errors/v2"

	"reqtester/internal/bootstrap"
	"reqtester/internal/request"
	"reqtester/internal/session"
	"reqtester/internal/ui/live"
	"reqtester/internal/ui/plain"
)

// stdin feeds --request-json -.
var stdin io.Reader = os.Stdin

// startLive launches the live UI; tests replace it.
var startLive = func(stdout io.Writer, noColor bool) liveUI {
	return live.Start(stdout, live.Options{NoColor: noColor})
}

// liveUI is the part of live.Controller the run command drives.
type liveUI interface {
	session.Observer
	OnStart(model string, count int)
	Done() <-chan struct{}
	Finish()
	Wait()
}

type runOptions struct {
	mode        string
	prompt      string
	model       string
	temperature float64
	maxTokens   int
	count       int
	requestJSON string
	uiMode      string
	noColor     bool
	export      bool
	dbPath      string
}

func runRun(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		common := addCommonFlags(fs)
		opts := runOptions{}
		fs.StringVar(&opts.mode, "mode", "simple", "Request mode (simple|structured)")
		fs.StringVar(&opts.prompt, "prompt", request.DefaultPrompt, "Prompt for simple mode")
		fs.StringVar(&opts.model, "model", "", "Model (default: backend default model)")
		fs.Float64Var(&opts.temperature, "temperature", 0, "Sampling temperature (default: config)")
		fs.IntVar(&opts.maxTokens, "max-tokens", 0, "Maximum tokens (default: config)")
		fs.IntVar(&opts.count, "count", 1, "Number of repetitions")
		fs.StringVar(&opts.requestJSON, "request-json", "", "Structured request body file, or - for stdin")
		fs.StringVar(&opts.uiMode, "ui", "", "Output mode (auto|live|plain)")
		fs.BoolVar(&opts.noColor, "no-color", false, "Disable colors in live output")
		fs.BoolVar(&opts.export, "export", false, "Export the finished session into DuckDB")
		fs.StringVar(&opts.dbPath, "db", "", "DuckDB file for --export (default: config)")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		if fs.NArg() > 0 {
			fmt.Fprintf(stderr, "Unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
			return ExitUsage
		}
		setFlags := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

		mode, err := request.ParseMode(opts.mode)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid mode: %v\n", err)
			return ExitUsage
		}

		env, err := loadEnvironment(common)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		defer env.Close()

		uiMode := opts.uiMode
		if uiMode == "" {
			uiMode = env.cfg.UI.Mode
		}
		decision, err := resolveUIMode(uiMode, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid ui mode: %v\n", err)
			return ExitUsage
		}
		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}
		var logSink io.Writer = stderr
		if decision.useLive {
			logSink = nil
		}
		if err := env.startLogging(logSink); err != nil {
			fmt.Fprintf(stderr, "Failed to start logging: %v\n", err)
			return ExitError
		}

		ctx, stop := commandContext()
		defer stop()

		defaults := bootstrap.NewLoader(env.backend, 0, env.logger.Named("bootstrap")).Load(ctx)
		model := strings.TrimSpace(opts.model)
		if model == "" {
			model = defaults.DefaultModel
			if defaults.ModelFallback() {
				model = env.cfg.Defaults.Model
			}
		}
		if !setFlags["temperature"] {
			opts.temperature = env.cfg.Defaults.Temperature
		}
		if !setFlags["max-tokens"] {
			opts.maxTokens = env.cfg.Defaults.MaxTokens
		}

		spec := request.Spec{Mode: mode, Count: opts.count}
		if mode == request.ModeStructured {
			body, err := readRequestJSON(opts.requestJSON)
			if err != nil {
				fmt.Fprintf(stderr, "Failed to read request JSON: %v\n", err)
				return ExitError
			}
			if body == nil {
				body = request.DefaultStructured(model)
			}
			spec.Structured = body
		} else {
			spec.Simple = request.Simple{
				Prompt:      opts.prompt,
				Model:       model,
				Temperature: opts.temperature,
				MaxTokens:   opts.maxTokens,
			}
		}
		if err := spec.Validate(request.Limits{MaxCount: env.cfg.Defaults.MaxCount}); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return ExitUsage
		}

		var observer session.Observer
		var ui liveUI
		if decision.useLive {
			ui = startLive(stdout, opts.noColor || env.cfg.UI.NoColor)
			ui.OnStart(model, opts.count)
			observer = ui
		} else {
			observer = plain.NewProgress(stdout)
		}
		finishUI := func() {
			if ui != nil {
				ui.Finish()
				ui.Wait()
			}
		}

		ctrl, err := env.controller(observer)
		if err != nil {
			finishUI()
			fmt.Fprintf(stderr, "Failed to start session: %v\n", err)
			return ExitError
		}
		defer ctrl.Close()

		id, err := ctrl.Submit(ctx, spec)
		if err != nil {
			finishUI()
			fmt.Fprintf(stderr, "Submit failed: %v\n", err)
			if errors.Is(err, request.ErrInvalidSpec) {
				return ExitUsage
			}
			return ExitError
		}

		waitCtx, cancelWait := context.WithCancel(ctx)
		defer cancelWait()
		if ui != nil {
			go func() {
				select {
				case <-ui.Done():
					cancelWait()
				case <-waitCtx.Done():
				}
			}()
		}
		waitErr := ctrl.Wait(waitCtx)
		finishUI()

		view := ctrl.View()
		if waitErr != nil || !view.Phase.Terminal() {
			fmt.Fprintf(stdout, "Stopped following session %s; it may still be running.\n", id)
			fmt.Fprintf(stdout, "Use \"reqtester show --watch %s\" to resume.\n", id)
			return ExitError
		}
		plain.RenderView(stdout, view)

		if opts.export {
			dbPath := opts.dbPath
			if dbPath == "" {
				dbPath = env.cfg.Export.DBPath
			}
			if err := exportView(ctx, stdout, dbPath, view); err != nil {
				fmt.Fprintf(stderr, "Export failed: %v\n", err)
				return ExitError
			}
		}
		if view.Phase != session.PhaseCompleted {
			return ExitError
		}
		return ExitOK
	}
}

// readRequestJSON returns nil when no source was given.
func readRequestJSON(source string) (json.RawMessage, error) {
	source = strings.TrimSpace(source)
	switch source {
	case "":
		return nil, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
		return json.RawMessage(data), nil
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", source)
		}
		return json.RawMessage(data), nil
	}
}
