package cli

import (
	"flag"
	"fmt"
	"io"

	"reqtester/internal/registry"
)

func runDelete(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
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
		if fs.NArg() == 0 {
			fmt.Fprintln(stderr, "delete requires at least one session id")
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
		reg := registry.New(env.backend)
		code := ExitOK
		for _, id := range fs.Args() {
			if err := reg.Delete(ctx, id); err != nil {
				fmt.Fprintf(stderr, "Failed to delete %s: %v\n", id, err)
				code = ExitError
				continue
			}
			fmt.Fprintf(stdout, "Deleted %s\n", id)
		}
		return code
	}
}

func runClear(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
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

		ctrl, err := env.controller(nil)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to start session: %v\n", err)
			return ExitError
		}
		defer ctrl.Close()

		ctx, stop := commandContext()
		defer stop()
		report, err := ctrl.DeleteAll(ctx)
		if report.Total() == 0 {
			if err != nil {
				fmt.Fprintf(stderr, "Failed to clear sessions: %v\n", err)
				return ExitError
			}
			fmt.Fprintln(stdout, "No sessions to delete.")
			return ExitOK
		}
		fmt.Fprintf(stdout, "Deleted %d of %d sessions\n", len(report.Deleted), report.Total())
		for _, failure := range report.Failed {
			fmt.Fprintf(stderr, "Failed to delete %s: %v\n", failure.SessionID, failure.Err)
		}
		if len(report.Failed) > 0 {
			return ExitError
		}
		if err != nil {
			fmt.Fprintf(stderr, "Sessions deleted but the list could not be refreshed: %v\n", err)
		}
		if remaining := ctrl.View().Sessions; len(remaining) > 0 {
			fmt.Fprintf(stdout, "%d sessions remain\n", len(remaining))
		}
		return ExitOK
	}
}
