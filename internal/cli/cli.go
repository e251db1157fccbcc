// Package cli implements the reqtester command line.
package cli

import (
	"fmt"
	"io"
	"slices"
)

// Exit codes returned by Run.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Command is one reqtester subcommand. Run receives the arguments after the
// command name.
type Command struct {
	Name    string
	Aliases []string
	Summary string
	Usage   []string
	Run     func(args []string, stdout, stderr io.Writer) int
}

type runnerFactory func(cmd *Command) func(args []string, stdout, stderr io.Writer) int

var commands = []*Command{
	command("run", nil, "Submit a repeated test request and follow it", []string{
		"reqtester run [--count N] [--model M] [--prompt P] [--temperature T] [--max-tokens N]",
		"reqtester run --mode structured [--request-json <file|->] [--count N]",
	}, runRun),
	command("sessions", []string{"ls"}, "List sessions known to the backend", []string{
		"reqtester sessions",
	}, runSessions),
	command("show", nil, "Show a session's summary and results", []string{
		"reqtester show [--watch] <session-id>",
	}, runShow),
	command("delete", []string{"rm"}, "Delete sessions", []string{
		"reqtester delete <session-id>...",
	}, runDelete),
	command("clear", nil, "Delete every session", []string{
		"reqtester clear",
	}, runClear),
	command("export", nil, "Export a session into DuckDB", []string{
		"reqtester export [--db <path>] <session-id>",
	}, runExport),
	command("info", nil, "Show backend defaults, configuration and health", []string{
		"reqtester info",
	}, runInfo),
}

func command(name string, aliases []string, summary string, usage []string, factory runnerFactory) *Command {
	cmd := &Command{Name: name, Aliases: aliases, Summary: summary, Usage: usage}
	cmd.Run = factory(cmd)
	return cmd
}

// Run dispatches args to a command and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	switch {
	case len(args) == 0:
		printUsage(stdout)
		return ExitUsage
	case args[0] == "help" || isHelpFlag(args[0]):
		printUsage(stdout)
		return ExitOK
	}
	idx := slices.IndexFunc(commands, func(cmd *Command) bool {
		return cmd.Name == args[0] || slices.Contains(cmd.Aliases, args[0])
	})
	if idx < 0 {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}
	return commands[idx].Run(args[1:], stdout, stderr)
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help"
}

func wantsHelp(args []string) bool {
	return slices.ContainsFunc(args, isHelpFlag)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  reqtester <command> [options]\n\nCommands:\n")
	for _, cmd := range commands {
		name := cmd.Name
		if len(cmd.Aliases) > 0 {
			name += " (" + cmd.Aliases[0] + ")"
		}
		fmt.Fprintf(w, "  %-16s %s\n", name, cmd.Summary)
	}
	fmt.Fprint(w, "\nUse \"reqtester <command> --help\" for more information.\n")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}
