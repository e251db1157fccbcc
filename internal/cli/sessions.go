package cli

import (
	"flag"
	"fmt"
	"io"

	"reqtester/internal/registry"
	"reqtester/internal/ui/plain"
)

func runSessions(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
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
		sessions, err := registry.New(env.backend).List(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to list sessions: %v\n", err)
			return ExitError
		}
		plain.RenderSessions(stdout, sessions)
		return ExitOK
	}
}
