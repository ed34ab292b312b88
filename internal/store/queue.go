package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Review queue lifecycle statuses.
const (
	ReviewStatusPending            = "pending"
	ReviewStatusAssigned           = "assigned"
	ReviewStatusInReview           = "in_review"
	ReviewStatusCompleted          = "completed"
	ReviewStatusNeedsClarification = "needs_clarification"
)

// ReviewQueueItem is one pending or resolved human-review task for an
// automated result. Completed items are immutable.
type ReviewQueueItem struct {
	ID                  string
	TestRecordID        string
	AutomatedResultID   string
	ToolName            string
	ToolResult          string
	WCAGCriterion       string
	AutomatedEvidence   json.RawMessage
	Priority            string
	ReviewCategory      string
	ComplexityScore     float64
	FalsePositiveRisk   float64
	ToolConfidence      string
	ReviewStatus        string
	AssignedReviewer    string
	ReviewDecision      string
	ReviewerNotes       string
	ReviewEvidence      json.RawMessage
	DueDate             time.Time
	CreatedAt           time.Time
	ReviewCompletedAt   *time.Time
	TimeToCompletionMin *int64
}

// QueueClosure carries the fields written when a review resolves an item.
type QueueClosure struct {
	ReviewDecision      string
	ReviewerNotes       string
	ReviewEvidence      json.RawMessage
	Reviewer            string
	ReviewCompletedAt   time.Time
	TimeToCompletionMin int64
}

const queueColumns = `id, test_record_id, automated_result_id, tool_name, tool_result,
	wcag_criterion, automated_evidence, priority, review_category,
	complexity_score, false_positive_risk, tool_confidence,
	review_status, assigned_reviewer, review_decision, reviewer_notes,
	review_evidence, due_date, created_at, review_completed_at,
	time_to_completion_min`

func (t *sqlTx) InsertQueueItem(ctx context.Context, item *ReviewQueueItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO review_queue (
			id, test_record_id, automated_result_id, tool_name, tool_result,
			wcag_criterion, automated_evidence, priority, review_category,
			complexity_score, false_positive_risk, tool_confidence,
			review_status, due_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		item.ID, item.TestRecordID, nullString(item.AutomatedResultID),
		item.ToolName, item.ToolResult, item.WCAGCriterion,
		nullableRaw(item.AutomatedEvidence), item.Priority, item.ReviewCategory,
		item.ComplexityScore, item.FalsePositiveRisk, item.ToolConfidence,
		item.ReviewStatus, item.DueDate, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("InsertQueueItem: %w", err)
	}
	return nil
}

func (t *sqlTx) GetQueueItem(ctx context.Context, id string) (*ReviewQueueItem, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM review_queue WHERE id = $1`, id)
	item, err := scanQueueItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetQueueItem %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetQueueItem: %w", err)
	}
	return item, nil
}

// FindOpenQueueItem returns the open (not completed) queue item for a
// (test record, automated result) pair, or nil if none exists. Used by the
// coordinator to avoid stacking duplicate review tasks for the same result.
func (t *sqlTx) FindOpenQueueItem(ctx context.Context, testRecordID, automatedResultID string) (*ReviewQueueItem, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM review_queue
		 WHERE test_record_id = $1 AND automated_result_id = $2
		   AND review_status != $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		testRecordID, automatedResultID, ReviewStatusCompleted)
	item, err := scanQueueItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindOpenQueueItem: %w", err)
	}
	return item, nil
}

// CloseQueueItem marks an item completed. The status guard makes closure
// terminal: closing an already-completed item returns ErrQueueItemClosed.
func (t *sqlTx) CloseQueueItem(ctx context.Context, id string, params QueueClosure) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE review_queue
		SET review_status          = $2,
		    review_decision        = $3,
		    reviewer_notes         = $4,
		    review_evidence        = $5,
		    assigned_reviewer      = $6,
		    review_completed_at    = $7,
		    time_to_completion_min = $8
		WHERE id = $1 AND review_status != $2
	`, id, ReviewStatusCompleted, params.ReviewDecision, nullString(params.ReviewerNotes),
		nullableRaw(params.ReviewEvidence), nullString(params.Reviewer),
		params.ReviewCompletedAt, params.TimeToCompletionMin)
	if err != nil {
		return fmt.Errorf("CloseQueueItem: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("CloseQueueItem: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("CloseQueueItem %s: %w", id, ErrQueueItemClosed)
	}
	return nil
}

// ListQueueParams holds filters and pagination for queue listing.
type ListQueueParams struct {
	ReviewStatus     *string
	Priority         *string
	WCAGCriterion    *string
	AssignedReviewer *string
	Page             int
	PageSize         int
}

// ListQueueItems returns filtered, paginated review queue items and the
// total count, newest first within priority order.
func (s *Store) ListQueueItems(ctx context.Context, params ListQueueParams) ([]ReviewQueueItem, int, error) {
	conditions := []string{"1 = 1"}
	var args []any

	appendFilter := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	appendFilter("review_status", params.ReviewStatus)
	appendFilter("priority", params.Priority)
	appendFilter("wcag_criterion", params.WCAGCriterion)
	appendFilter("assigned_reviewer", params.AssignedReviewer)

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT count(*) FROM review_queue WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListQueueItems count: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	args = append(args, params.PageSize, offset)
	dataQuery := fmt.Sprintf(
		`SELECT %s FROM review_queue WHERE %s
		 ORDER BY array_position(ARRAY['critical','high','medium','low'], priority),
		          due_date ASC
		 LIMIT $%d OFFSET $%d`,
		queueColumns, where, len(args)-1, len(args),
	)

	rows, err := s.db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListQueueItems query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []ReviewQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListQueueItems scan: %w", err)
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(row rowScanner) (*ReviewQueueItem, error) {
	var item ReviewQueueItem
	var automatedResultID, reviewer, decision, notes sql.NullString
	var completedAt sql.NullTime
	var completionMin sql.NullInt64
	err := row.Scan(
		&item.ID, &item.TestRecordID, &automatedResultID, &item.ToolName,
		&item.ToolResult, &item.WCAGCriterion, &item.AutomatedEvidence,
		&item.Priority, &item.ReviewCategory,
		&item.ComplexityScore, &item.FalsePositiveRisk, &item.ToolConfidence,
		&item.ReviewStatus, &reviewer, &decision, &notes,
		&item.ReviewEvidence, &item.DueDate, &item.CreatedAt, &completedAt,
		&completionMin,
	)
	if err != nil {
		return nil, err
	}
	item.AutomatedResultID = stringOrEmpty(automatedResultID)
	item.AssignedReviewer = stringOrEmpty(reviewer)
	item.ReviewDecision = stringOrEmpty(decision)
	item.ReviewerNotes = stringOrEmpty(notes)
	if completedAt.Valid {
		item.ReviewCompletedAt = &completedAt.Time
	}
	if completionMin.Valid {
		item.TimeToCompletionMin = &completionMin.Int64
	}
	return &item, nil
}
