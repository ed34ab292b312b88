// Package workflow orchestrates evidence extraction, classification, audit
// logging and review queueing for a test record. It owns the transactional
// boundary and is the sole writer of test record status: status and the
// matching audit entry always commit together.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JohnDHoinville/vpat-report-sub005/internal/analytics"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/classify"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/evidence"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/store"
)

// Decision is a reviewer's resolution of a queued item.
type Decision struct {
	Decision           string          `json:"decision"`
	ReviewerID         string          `json:"reviewer_id"`
	Notes              string          `json:"notes,omitempty"`
	ConfidenceLevel    string          `json:"confidence_level,omitempty"`
	OverrideStatus     string          `json:"override_status,omitempty"`
	AdditionalEvidence json.RawMessage `json:"additional_evidence,omitempty"`
	EvidenceFiles      []string        `json:"evidence_files,omitempty"`
}

// AutomatedOutcome is the result of ingesting one automated scanner result.
type AutomatedOutcome struct {
	AuditLogID    string
	ReviewQueueID string // empty if no review was required
	FinalStatus   string
	NeedsReview   bool
	Evidence      *evidence.Evidence
}

// ReviewOutcome is the result of resolving one manual review.
type ReviewOutcome struct {
	AuditLogID     string
	FinalStatus    string
	ReviewDecision string
}

// Coordinator wires the extractor registry, classifier, store and analytics
// stream together behind the two engine entry points.
type Coordinator struct {
	store     store.TxRunner
	extractor *evidence.Registry
	writer    analytics.EventWriter
	logger    *zap.Logger
}

// NewCoordinator creates a Coordinator with the given dependencies.
func NewCoordinator(txr store.TxRunner, extractor *evidence.Registry, writer analytics.EventWriter, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:     txr,
		extractor: extractor,
		writer:    writer,
		logger:    logger,
	}
}

// ProcessAutomatedResult ingests one raw scanner result for a test record.
// Extraction never fails (malformed input degrades to generic evidence);
// everything else runs inside a single transaction, all-or-nothing.
//
// Re-processing the same raw result is not deduplicated here: every call
// appends a new audit entry. Scanner wrappers are responsible for not
// double-submitting.
func (c *Coordinator) ProcessAutomatedResult(ctx context.Context, testRecordID string, raw *evidence.RawResult, criterion string) (*AutomatedOutcome, error) {
	start := time.Now()
	ev := c.extractor.Extract(raw, criterion)
	cl := classify.Classify(ev, criterion)
	finalStatus := cl.FinalStatus()

	evidenceJSON, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("ProcessAutomatedResult: marshal evidence: %w", err)
	}

	toolName := ""
	automatedResultID := ""
	var rawOutput json.RawMessage
	if raw != nil {
		toolName = raw.ToolName
		automatedResultID = raw.ID
		rawOutput = raw.RawResults
	}

	now := time.Now().UTC()
	outcome := &AutomatedOutcome{
		FinalStatus: finalStatus,
		NeedsReview: cl.NeedsReview,
		Evidence:    ev,
	}
	var statusFrom string

	err = c.store.InTx(ctx, func(tx store.Tx) error {
		record, err := tx.GetTestRecord(ctx, testRecordID)
		if err != nil {
			return err
		}
		statusFrom = record.Status

		if err := tx.UpdateRecordAutomated(ctx, testRecordID, finalStatus, "automated", toolName); err != nil {
			return err
		}

		confidence := confidenceScore(ev.ConfidenceLevel)
		execMs := ev.Execution.DurationMs
		entry := &store.AuditLogEntry{
			ID:                  uuid.New().String(),
			TestRecordID:        testRecordID,
			StatusFrom:          record.Status,
			StatusTo:            finalStatus,
			ChangedByType:       store.ChangedByAutomatedTool,
			ToolName:            toolName,
			ChangeReason:        store.ChangeReasonInitialAutomated,
			ChangeDescription:   fmt.Sprintf("automated %s result for criterion %s", toolName, criterion),
			Evidence:            evidenceJSON,
			RawToolOutput:       rawOutput,
			AutomatedResultID:   automatedResultID,
			ToolConfidenceScore: &confidence,
			ToolExecutionTimeMs: &execMs,
			CreatedAt:           now,
		}
		if err := tx.InsertAuditEntry(ctx, entry); err != nil {
			return err
		}
		outcome.AuditLogID = entry.ID

		if !cl.NeedsReview {
			return nil
		}

		// One open review task per (record, automated result): if an open
		// item already exists for this result, reuse it instead of stacking
		// a duplicate.
		if automatedResultID != "" {
			existing, err := tx.FindOpenQueueItem(ctx, testRecordID, automatedResultID)
			if err != nil {
				return err
			}
			if existing != nil {
				outcome.ReviewQueueID = existing.ID
				return nil
			}
		}

		item := &store.ReviewQueueItem{
			ID:                uuid.New().String(),
			TestRecordID:      testRecordID,
			AutomatedResultID: automatedResultID,
			ToolName:          toolName,
			ToolResult:        string(ev.ToolResult),
			WCAGCriterion:     criterion,
			AutomatedEvidence: evidenceJSON,
			Priority:          string(cl.Priority),
			ReviewCategory:    string(cl.ReviewCategory),
			ComplexityScore:   ev.Review.ComplexityScore,
			FalsePositiveRisk: ev.Review.FalsePositiveRisk,
			ToolConfidence:    string(ev.ConfidenceLevel),
			ReviewStatus:      store.ReviewStatusPending,
			DueDate:           now.Add(slaFor(cl.Priority)),
			CreatedAt:         now,
		}
		if err := tx.InsertQueueItem(ctx, item); err != nil {
			return err
		}
		outcome.ReviewQueueID = item.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.emitEvent(&analytics.StatusChangeEvent{
		EventID:           outcome.AuditLogID,
		TestRecordID:      testRecordID,
		Timestamp:         now,
		StatusFrom:        statusFrom,
		StatusTo:          finalStatus,
		ChangedByType:     store.ChangedByAutomatedTool,
		ToolName:          toolName,
		WCAGCriterion:     criterion,
		ReviewCategory:    string(cl.ReviewCategory),
		Priority:          string(cl.Priority),
		NeedsReview:       cl.NeedsReview,
		ConfidenceLevel:   string(ev.ConfidenceLevel),
		ComplexityScore:   ev.Review.ComplexityScore,
		FalsePositiveRisk: ev.Review.FalsePositiveRisk,
		QueueItemID:       outcome.ReviewQueueID,
		LatencyMs:         float32(float64(time.Since(start)) / float64(time.Millisecond)),
	})

	return outcome, nil
}

// ProcessManualReview resolves a queued review item. The queue item closure,
// the test record update and the audit entry commit together; a completed
// item cannot be resolved a second time.
func (c *Coordinator) ProcessManualReview(ctx context.Context, queueItemID string, decision *Decision) (*ReviewOutcome, error) {
	if decision == nil {
		return nil, fmt.Errorf("%w: missing decision", ErrInvalidDecision)
	}

	start := time.Now()
	now := time.Now().UTC()
	outcome := &ReviewOutcome{ReviewDecision: decision.Decision}
	var statusFrom, criterion, testRecordID string

	err := c.store.InTx(ctx, func(tx store.Tx) error {
		item, err := tx.GetQueueItem(ctx, queueItemID)
		if err != nil {
			return err
		}
		if item.ReviewStatus == store.ReviewStatusCompleted {
			return fmt.Errorf("ProcessManualReview %s: %w", queueItemID, store.ErrQueueItemClosed)
		}
		criterion = item.WCAGCriterion
		testRecordID = item.TestRecordID

		finalStatus, err := resolveDecision(item.ToolResult, decision)
		if err != nil {
			return err
		}
		outcome.FinalStatus = finalStatus

		record, err := tx.GetTestRecord(ctx, item.TestRecordID)
		if err != nil {
			return err
		}
		statusFrom = record.Status

		notes := append(record.Notes, NoteFromDecision(decision, now))
		if err := tx.UpdateRecordReviewed(ctx, item.TestRecordID, store.RecordReviewUpdate{
			Status:          finalStatus,
			Reviewer:        decision.ReviewerID,
			ConfidenceLevel: decision.ConfidenceLevel,
			Notes:           notes,
			ReviewedAt:      now,
		}); err != nil {
			return err
		}

		reviewEvidence := decision.AdditionalEvidence
		if len(reviewEvidence) == 0 {
			reviewEvidence = json.RawMessage(`{}`)
		}

		entry := &store.AuditLogEntry{
			ID:                uuid.New().String(),
			TestRecordID:      item.TestRecordID,
			StatusFrom:        record.Status,
			StatusTo:          finalStatus,
			ChangedByType:     store.ChangedByManualTester,
			ChangedByUser:     decision.ReviewerID,
			ToolName:          item.ToolName,
			ChangeReason:      store.ChangeReasonManualReview,
			ChangeDescription: fmt.Sprintf("manual review %s of %s result for criterion %s", decision.Decision, item.ToolName, item.WCAGCriterion),
			ReviewerNotes:     decision.Notes,
			Evidence:          reviewEvidence,
			SupportingFiles:   decision.EvidenceFiles,
			AutomatedResultID: item.AutomatedResultID,
			CreatedAt:         now,
		}
		if err := tx.InsertAuditEntry(ctx, entry); err != nil {
			return err
		}
		outcome.AuditLogID = entry.ID

		return tx.CloseQueueItem(ctx, queueItemID, store.QueueClosure{
			ReviewDecision:      decision.Decision,
			ReviewerNotes:       decision.Notes,
			ReviewEvidence:      reviewEvidence,
			Reviewer:            decision.ReviewerID,
			ReviewCompletedAt:   now,
			TimeToCompletionMin: int64(now.Sub(item.CreatedAt).Minutes()),
		})
	})
	if err != nil {
		return nil, err
	}

	c.emitEvent(&analytics.StatusChangeEvent{
		EventID:        outcome.AuditLogID,
		TestRecordID:   testRecordID,
		Timestamp:      now,
		StatusFrom:     statusFrom,
		StatusTo:       outcome.FinalStatus,
		ChangedByType:  store.ChangedByManualTester,
		ChangedByUser:  decision.ReviewerID,
		WCAGCriterion:  criterion,
		QueueItemID:    queueItemID,
		ReviewDecision: decision.Decision,
		LatencyMs:      float32(float64(time.Since(start)) / float64(time.Millisecond)),
	})

	return outcome, nil
}

func (c *Coordinator) emitEvent(event *analytics.StatusChangeEvent) {
	if c.writer == nil {
		return
	}
	c.writer.Write(event)
}

// NoteFromDecision converts a review decision into a structured note entry.
func NoteFromDecision(d *Decision, at time.Time) store.NoteEntry {
	text := d.Notes
	if text == "" {
		text = fmt.Sprintf("review decision: %s", d.Decision)
	}
	return store.NoteEntry{
		Timestamp: at,
		Author:    d.ReviewerID,
		Text:      text,
	}
}

// confidenceScore maps a confidence bucket to the numeric score recorded in
// the audit log.
func confidenceScore(c evidence.Confidence) float64 {
	switch c {
	case evidence.ConfidenceHigh:
		return 0.9
	case evidence.ConfidenceMedium:
		return 0.6
	default:
		return 0.3
	}
}
