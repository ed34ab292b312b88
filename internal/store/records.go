package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// TestRecord is one WCAG criterion evaluated against one page or session.
// Status is mutated exclusively by the workflow coordinator; rows are never
// deleted, only transitioned.
type TestRecord struct {
	ID               string
	Status           string
	MethodUsed       string
	ToolUsed         string
	ConfidenceLevel  string
	AssignedReviewer string
	Notes            []NoteEntry
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ReviewedAt       *time.Time
	CompletedAt      *time.Time
}

// NoteEntry is one structured note on a test record. Notes are an ordered
// append-only list; existing entries are never rewritten.
type NoteEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
}

// RecordReviewUpdate carries the test record mutation applied when a manual
// review is resolved. ConfidenceLevel empty means keep the current value.
type RecordReviewUpdate struct {
	Status          string
	Reviewer        string
	ConfidenceLevel string
	Notes           []NoteEntry
	ReviewedAt      time.Time
}

func (t *sqlTx) GetTestRecord(ctx context.Context, id string) (*TestRecord, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, status, method_used, tool_used, confidence_level,
		       assigned_reviewer, notes, created_at, updated_at,
		       reviewed_at, completed_at
		FROM test_records
		WHERE id = $1
	`, id)

	var r TestRecord
	var methodUsed, toolUsed, confidence, reviewer sql.NullString
	var notes []byte
	var reviewedAt, completedAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.Status, &methodUsed, &toolUsed, &confidence,
		&reviewer, &notes, &r.CreatedAt, &r.UpdatedAt,
		&reviewedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetTestRecord %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTestRecord: %w", err)
	}

	r.MethodUsed = stringOrEmpty(methodUsed)
	r.ToolUsed = stringOrEmpty(toolUsed)
	r.ConfidenceLevel = stringOrEmpty(confidence)
	r.AssignedReviewer = stringOrEmpty(reviewer)
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &r.Notes); err != nil {
			return nil, fmt.Errorf("GetTestRecord notes: %w", err)
		}
	}
	return &r, nil
}

func (t *sqlTx) UpdateRecordAutomated(ctx context.Context, id, status, methodUsed, toolUsed string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE test_records
		SET status = $2, method_used = $3, tool_used = $4, updated_at = now()
		WHERE id = $1
	`, id, status, methodUsed, toolUsed)
	if err != nil {
		return fmt.Errorf("UpdateRecordAutomated: %w", err)
	}
	return requireOneRow(res, "UpdateRecordAutomated")
}

func (t *sqlTx) UpdateRecordReviewed(ctx context.Context, id string, params RecordReviewUpdate) error {
	notes, err := json.Marshal(params.Notes)
	if err != nil {
		return fmt.Errorf("UpdateRecordReviewed notes: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE test_records
		SET status           = $2,
		    assigned_reviewer = $3,
		    confidence_level = COALESCE($4, confidence_level),
		    notes            = $5,
		    reviewed_at      = $6,
		    updated_at       = now()
		WHERE id = $1
	`, id, params.Status, params.Reviewer, nullString(params.ConfidenceLevel),
		notes, params.ReviewedAt)
	if err != nil {
		return fmt.Errorf("UpdateRecordReviewed: %w", err)
	}
	return requireOneRow(res, "UpdateRecordReviewed")
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
