package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/Laisky/errors/v2"

	"reqtester/internal/aggregate"
	"reqtester/internal/duckdb"
	"reqtester/internal/normalize"
	"reqtester/internal/registry"
	"reqtester/internal/session"
)

func runExport(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		common := addCommonFlags(fs)
		dbPath := fs.String("db", "", "DuckDB file (default: config export.db_path)")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "export requires exactly one session id")
			return ExitUsage
		}
		id := fs.Arg(0)

		env, err := openEnvironment(common, stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		defer env.Close()
		path := *dbPath
		if path == "" {
			path = env.cfg.Export.DBPath
		}

		ctx, stop := commandContext()
		defer stop()
		res, err := registry.New(env.backend).Get(ctx, id)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load session: %v\n", err)
			return ExitError
		}
		records := normalize.DecodeAll(res.Results)
		view := session.View{
			SessionID: id,
			Status:    res.Status,
			Completed: res.Completed,
			Total:     res.Total,
			Records:   records,
			Summary:   aggregate.Summarize(records),
		}
		if err := exportView(ctx, stdout, path, view); err != nil {
			fmt.Fprintf(stderr, "Export failed: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}

// exportView writes a session snapshot to the DuckDB file at path.
func exportView(ctx context.Context, stdout io.Writer, path string, view session.View) error {
	db, err := duckdb.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()
	out, err := duckdb.ExportSession(ctx, db, duckdb.Snapshot{
		SessionID: view.SessionID,
		Status:    view.Status,
		Completed: view.Completed,
		Total:     view.Total,
		Records:   view.Records,
		Summary:   view.Summary,
	}, time.Now())
	if err != nil {
		return errors.Wrapf(err, "export session %s", view.SessionID)
	}
	fmt.Fprintf(stdout, "Exported session %s to %s (export %s, %d results, %d tool calls)\n",
		out.SessionID, path, out.ExportID, out.Results, out.ToolCalls)
	return nil
}
