package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Change reasons recorded on audit log entries.
const (
	ChangeReasonInitialAutomated = "initial_automated_result"
	ChangeReasonManualReview     = "manual_review"
)

// Actor types recorded on audit log entries.
const (
	ChangedByAutomatedTool = "automated_tool"
	ChangedByManualTester  = "manual_tester"
)

// AuditLogEntry is one append-only status transition record. Entries are
// never updated or deleted; corrections are new entries. All audit context
// (who, why, with what evidence) is passed in explicitly here rather than
// threaded through connection state.
type AuditLogEntry struct {
	ID                  string
	TestRecordID        string
	StatusFrom          string
	StatusTo            string
	ChangedByType       string
	ChangedByUser       string
	ToolName            string
	ChangeReason        string
	ChangeDescription   string
	ReviewerNotes       string
	Evidence            json.RawMessage
	RawToolOutput       json.RawMessage
	Screenshots         []string
	SupportingFiles     []string
	AutomatedResultID   string
	ToolConfidenceScore *float64
	ToolExecutionTimeMs *int64
	CreatedAt           time.Time
}

func (t *sqlTx) InsertAuditEntry(ctx context.Context, entry *AuditLogEntry) error {
	screenshots, err := json.Marshal(emptyIfNil(entry.Screenshots))
	if err != nil {
		return fmt.Errorf("InsertAuditEntry screenshots: %w", err)
	}
	files, err := json.Marshal(emptyIfNil(entry.SupportingFiles))
	if err != nil {
		return fmt.Errorf("InsertAuditEntry supporting_files: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO audit_log (
			id, test_record_id, status_from, status_to,
			changed_by_type, changed_by_user, tool_name,
			change_reason, change_description, reviewer_notes,
			evidence, raw_tool_output, screenshots, supporting_files,
			automated_result_id, tool_confidence_score, tool_execution_time_ms,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		entry.ID, entry.TestRecordID, entry.StatusFrom, entry.StatusTo,
		entry.ChangedByType, nullString(entry.ChangedByUser), nullString(entry.ToolName),
		entry.ChangeReason, entry.ChangeDescription, nullString(entry.ReviewerNotes),
		nullableRaw(entry.Evidence), nullableRaw(entry.RawToolOutput), screenshots, files,
		nullString(entry.AutomatedResultID), entry.ToolConfidenceScore, entry.ToolExecutionTimeMs,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("InsertAuditEntry: %w", err)
	}
	return nil
}

// ListAuditEntries returns the full history for a test record ordered by
// created_at ascending, which is the transition-chain order.
func (s *Store) ListAuditEntries(ctx context.Context, testRecordID string) ([]AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, test_record_id, status_from, status_to,
		       changed_by_type, changed_by_user, tool_name,
		       change_reason, change_description, reviewer_notes,
		       evidence, raw_tool_output, screenshots, supporting_files,
		       automated_result_id, tool_confidence_score, tool_execution_time_ms,
		       created_at
		FROM audit_log
		WHERE test_record_id = $1
		ORDER BY created_at ASC, id ASC
	`, testRecordID)
	if err != nil {
		return nil, fmt.Errorf("ListAuditEntries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []AuditLogEntry
	for rows.Next() {
		var e AuditLogEntry
		var changedByUser, toolName, reviewerNotes, automatedResultID sql.NullString
		var confidence sql.NullFloat64
		var execTime sql.NullInt64
		var screenshots, files []byte
		if err := rows.Scan(
			&e.ID, &e.TestRecordID, &e.StatusFrom, &e.StatusTo,
			&e.ChangedByType, &changedByUser, &toolName,
			&e.ChangeReason, &e.ChangeDescription, &reviewerNotes,
			&e.Evidence, &e.RawToolOutput, &screenshots, &files,
			&automatedResultID, &confidence, &execTime,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListAuditEntries scan: %w", err)
		}
		e.ChangedByUser = stringOrEmpty(changedByUser)
		e.ToolName = stringOrEmpty(toolName)
		e.ReviewerNotes = stringOrEmpty(reviewerNotes)
		e.AutomatedResultID = stringOrEmpty(automatedResultID)
		if confidence.Valid {
			v := confidence.Float64
			e.ToolConfidenceScore = &v
		}
		if execTime.Valid {
			v := execTime.Int64
			e.ToolExecutionTimeMs = &v
		}
		if len(screenshots) > 0 {
			if err := json.Unmarshal(screenshots, &e.Screenshots); err != nil {
				return nil, fmt.Errorf("ListAuditEntries screenshots: %w", err)
			}
		}
		if len(files) > 0 {
			if err := json.Unmarshal(files, &e.SupportingFiles); err != nil {
				return nil, fmt.Errorf("ListAuditEntries supporting_files: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableRaw returns nil (SQL NULL) if the raw message is nil or empty.
func nullableRaw(v json.RawMessage) interface{} {
	if len(v) == 0 {
		return nil
	}
	return []byte(v)
}
