package cli

import (
	"flag"
	"fmt"
	"io"

	"reqtester/internal/bootstrap"
	"reqtester/internal/ui/plain"
)

func runInfo(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		common := addCommonFlags(fs)
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		env, err := openEnvironment(common, stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		defer env.Close()

		ctx, stop := commandContext()
		defer stop()

		fmt.Fprintf(stdout, "Backend: %s\n", env.cfg.Server.BaseURL)
		health, healthErr := env.backend.Health(ctx)
		if healthErr != nil {
			fmt.Fprintf(stdout, "Health: unavailable (%v)\n", healthErr)
		} else {
			fmt.Fprintf(stdout, "Health: %s (version %s, %d active sessions)\n", health.Status, health.Version, health.ActiveSessions)
		}

		defaults := bootstrap.NewLoader(env.backend, 0, env.logger.Named("bootstrap")).Load(ctx)
		model := defaults.DefaultModel
		if defaults.ModelFallback() {
			model += " (fallback)"
		}
		fmt.Fprintf(stdout, "Default model: %s\n", model)
		fmt.Fprintf(stdout, "System prompt: %s\n", defaults.SystemPrompt)

		serverCfg, cfgErr := env.backend.Config(ctx)
		if cfgErr != nil {
			fmt.Fprintf(stdout, "Server config: unavailable (%v)\n", cfgErr)
		} else {
			plain.RenderServerConfig(stdout, serverCfg)
		}
		if healthErr != nil && cfgErr != nil {
			return ExitError
		}
		return ExitOK
	}
}
