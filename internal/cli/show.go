package cli

import (
	"flag"
	"fmt"
	"io"

	"reqtester/internal/session"
	"reqtester/internal/ui/plain"
)

func runShow(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		common := addCommonFlags(fs)
		watch := fs.Bool("watch", false, "Keep polling until the session finishes")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "show requires exactly one session id")
			return ExitUsage
		}
		id := fs.Arg(0)

		env, err := openEnvironment(common, stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		defer env.Close()

		var observer session.Observer
		if *watch {
			observer = plain.NewProgress(stdout)
		}
		ctrl, err := env.controller(observer)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to start session: %v\n", err)
			return ExitError
		}
		defer ctrl.Close()

		ctx, stop := commandContext()
		defer stop()
		if err := ctrl.Select(ctx, id); err != nil {
			fmt.Fprintf(stderr, "Failed to load session: %v\n", err)
			return ExitError
		}
		if *watch {
			if err := ctrl.Wait(ctx); err != nil {
				fmt.Fprintf(stderr, "Stopped watching session %s: %v\n", id, err)
				return ExitError
			}
		}
		view := ctrl.View()
		plain.RenderView(stdout, view)
		if view.Phase == session.PhaseStalled || view.Phase == session.PhaseFailed {
			return ExitError
		}
		return ExitOK
	}
}
