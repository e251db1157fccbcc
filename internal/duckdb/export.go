package duckdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"

	"reqtester/internal/aggregate"
	"reqtester/internal/normalize"
	"reqtester/pkg/tester"
)

// Snapshot is the session state written by one export.
type Snapshot struct {
	SessionID string
	Status    tester.SessionStatus
	Completed int
	Total     int
	Records   []normalize.Record
	Summary   aggregate.Summary
}

// ExportResult describes what an export wrote.
type ExportResult struct {
	ExportID  string
	SessionID string
	Results   int
	ToolCalls int
}

// ExportSession writes a snapshot in one transaction. Every export gets a
// new export id; the sessions row always points at the latest one.
func ExportSession(ctx context.Context, db *sql.DB, snap Snapshot, now time.Time) (ExportResult, error) {
	if db == nil {
		return ExportResult{}, errors.New("duckdb: db is nil")
	}
	if snap.SessionID == "" {
		return ExportResult{}, errors.New("duckdb: session id is required")
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	out := ExportResult{ExportID: uuid.NewString(), SessionID: snap.SessionID}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ExportResult{}, errors.Wrap(err, "begin export")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertExport(ctx, tx, out.ExportID, snap, now); err != nil {
		return ExportResult{}, err
	}
	for pos, record := range snap.Records {
		if err := insertResult(ctx, tx, out.ExportID, snap.SessionID, pos, record); err != nil {
			return ExportResult{}, err
		}
		out.Results++
		for callPos, call := range record.Payload.ToolCalls {
			if err := insertToolCall(ctx, tx, out.ExportID, snap.SessionID, pos, callPos, call); err != nil {
				return ExportResult{}, err
			}
			out.ToolCalls++
		}
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (session_id, status, completed, total, last_export_id, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
		   status = excluded.status,
		   completed = excluded.completed,
		   total = excluded.total,
		   last_export_id = excluded.last_export_id,
		   exported_at = excluded.exported_at`,
		snap.SessionID,
		string(snap.Status),
		snap.Completed,
		snap.Total,
		out.ExportID,
		now,
	); err != nil {
		return ExportResult{}, errors.Wrap(err, "upsert session")
	}
	if err := tx.Commit(); err != nil {
		return ExportResult{}, errors.Wrap(err, "commit export")
	}
	return out, nil
}

func insertExport(ctx context.Context, tx *sql.Tx, exportID string, snap Snapshot, now time.Time) error {
	summary := snap.Summary
	var toolResults, toolCalls, toolPct any
	if summary.HasToolCallStats {
		toolResults = summary.ToolCallSessions
		toolCalls = summary.TotalToolCalls
		toolPct = summary.ToolCallProbabilityPct
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO exports (
		  export_id, session_id, result_count, success_count, error_count, avg_duration,
		  tool_call_results, total_tool_calls, tool_call_probability_pct,
		  input_tokens, output_tokens, total_tokens, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exportID,
		snap.SessionID,
		len(snap.Records),
		summary.SuccessCount,
		summary.ErrorCount,
		summary.AvgDuration,
		toolResults,
		toolCalls,
		toolPct,
		summary.InputTokens,
		summary.OutputTokens,
		summary.TotalTokens,
		now,
	)
	if err != nil {
		return errors.Wrap(err, "insert export")
	}
	return nil
}

func insertResult(ctx context.Context, tx *sql.Tx, exportID, sessionID string, pos int, record normalize.Record) error {
	var duration any
	if record.HasDuration {
		duration = record.Duration
	}
	var inTokens, outTokens, totalTokens any
	if record.HasTokens {
		inTokens, outTokens, totalTokens = record.InputTokens, record.OutputTokens, record.TotalTokens
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO results (
		  export_id, session_id, position, result_index, success, duration, result_timestamp,
		  error, payload_kind, content, display_text, input_tokens, output_tokens, total_tokens, model
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exportID,
		sessionID,
		pos,
		record.Index,
		record.Success,
		duration,
		nullableString(record.Timestamp),
		nullableString(record.Error),
		record.Payload.Kind.String(),
		nullableString(record.Payload.Content),
		record.DisplayText(),
		inTokens,
		outTokens,
		totalTokens,
		nullableString(record.Model),
	)
	if err != nil {
		return errors.Wrapf(err, "insert result %d", record.Index)
	}
	return nil
}

func insertToolCall(ctx context.Context, tx *sql.Tx, exportID, sessionID string, pos, callPos int, call normalize.ToolCall) error {
	var object, text, fingerprint any
	kind := "none"
	switch call.Arguments.Kind {
	case normalize.ArgumentsObject:
		canonical, err := CanonicalJSON(call.Arguments.Object)
		if err != nil {
			return errors.Wrapf(err, "canonical arguments for %s", call.Name)
		}
		kind, object = "object", string(canonical)
	case normalize.ArgumentsText:
		kind, text = "text", call.Arguments.Text
	}
	fp, err := ArgumentsFingerprint(call.Arguments)
	if err != nil {
		return errors.Wrapf(err, "fingerprint arguments for %s", call.Name)
	}
	fingerprint = nullableString(fp)
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO tool_calls (
		  export_id, session_id, position, call_position, name, call_id,
		  arguments_kind, arguments, arguments_text, arguments_fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exportID,
		sessionID,
		pos,
		callPos,
		call.Name,
		nullableString(call.ID),
		kind,
		object,
		text,
		fingerprint,
	)
	if err != nil {
		return errors.Wrapf(err, "insert tool call %s", call.Name)
	}
	return nil
}

// nullableString maps empty strings to SQL NULL.
func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
