package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/JohnDHoinville/vpat-report-sub005/internal/analytics"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/evidence"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/store"
)

// fakeStore is an in-memory store.TxRunner with transactional semantics:
// state is snapshotted before fn runs and restored if fn fails, so a mid-
// transaction error leaves nothing behind, same as a rollback.
type fakeStore struct {
	records map[string]*store.TestRecord
	audit   []*store.AuditLogEntry
	queue   map[string]*store.ReviewQueueItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: map[string]*store.TestRecord{},
		queue:   map[string]*store.ReviewQueueItem{},
	}
}

func (f *fakeStore) addRecord(id, status string) {
	now := time.Now().UTC()
	f.records[id] = &store.TestRecord{
		ID:        id,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	records := make(map[string]*store.TestRecord, len(f.records))
	for k, v := range f.records {
		c := *v
		records[k] = &c
	}
	audit := make([]*store.AuditLogEntry, len(f.audit))
	copy(audit, f.audit)
	queue := make(map[string]*store.ReviewQueueItem, len(f.queue))
	for k, v := range f.queue {
		c := *v
		queue[k] = &c
	}

	if err := fn(&fakeTx{s: f}); err != nil {
		f.records = records
		f.audit = audit
		f.queue = queue
		return err
	}
	return nil
}

type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) GetTestRecord(ctx context.Context, id string) (*store.TestRecord, error) {
	r, ok := t.s.records[id]
	if !ok {
		return nil, fmt.Errorf("GetTestRecord %s: %w", id, store.ErrNotFound)
	}
	c := *r
	return &c, nil
}

func (t *fakeTx) UpdateRecordAutomated(ctx context.Context, id, status, methodUsed, toolUsed string) error {
	r, ok := t.s.records[id]
	if !ok {
		return fmt.Errorf("UpdateRecordAutomated: %w", store.ErrNotFound)
	}
	r.Status = status
	r.MethodUsed = methodUsed
	r.ToolUsed = toolUsed
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *fakeTx) UpdateRecordReviewed(ctx context.Context, id string, params store.RecordReviewUpdate) error {
	r, ok := t.s.records[id]
	if !ok {
		return fmt.Errorf("UpdateRecordReviewed: %w", store.ErrNotFound)
	}
	r.Status = params.Status
	r.AssignedReviewer = params.Reviewer
	if params.ConfidenceLevel != "" {
		r.ConfidenceLevel = params.ConfidenceLevel
	}
	r.Notes = params.Notes
	r.ReviewedAt = &params.ReviewedAt
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *fakeTx) InsertAuditEntry(ctx context.Context, entry *store.AuditLogEntry) error {
	c := *entry
	t.s.audit = append(t.s.audit, &c)
	return nil
}

func (t *fakeTx) InsertQueueItem(ctx context.Context, item *store.ReviewQueueItem) error {
	c := *item
	t.s.queue[item.ID] = &c
	return nil
}

func (t *fakeTx) GetQueueItem(ctx context.Context, id string) (*store.ReviewQueueItem, error) {
	item, ok := t.s.queue[id]
	if !ok {
		return nil, fmt.Errorf("GetQueueItem %s: %w", id, store.ErrNotFound)
	}
	c := *item
	return &c, nil
}

func (t *fakeTx) FindOpenQueueItem(ctx context.Context, testRecordID, automatedResultID string) (*store.ReviewQueueItem, error) {
	for _, item := range t.s.queue {
		if item.TestRecordID == testRecordID &&
			item.AutomatedResultID == automatedResultID &&
			item.ReviewStatus != store.ReviewStatusCompleted {
			c := *item
			return &c, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) CloseQueueItem(ctx context.Context, id string, params store.QueueClosure) error {
	item, ok := t.s.queue[id]
	if !ok || item.ReviewStatus == store.ReviewStatusCompleted {
		return fmt.Errorf("CloseQueueItem %s: %w", id, store.ErrQueueItemClosed)
	}
	item.ReviewStatus = store.ReviewStatusCompleted
	item.ReviewDecision = params.ReviewDecision
	item.ReviewerNotes = params.ReviewerNotes
	item.ReviewEvidence = params.ReviewEvidence
	item.AssignedReviewer = params.Reviewer
	item.ReviewCompletedAt = &params.ReviewCompletedAt
	item.TimeToCompletionMin = &params.TimeToCompletionMin
	return nil
}

// captureWriter records emitted analytics events.
type captureWriter struct {
	events []*analytics.StatusChangeEvent
}

func (w *captureWriter) Write(event *analytics.StatusChangeEvent) {
	w.events = append(w.events, event)
}

func (w *captureWriter) Close() {}

func newTestCoordinator(fs *fakeStore) (*Coordinator, *captureWriter) {
	writer := &captureWriter{}
	reg := evidence.NewRegistry(zap.NewNop())
	return NewCoordinator(fs, reg, writer, zap.NewNop()), writer
}

func intPtr(n int) *int { return &n }

func axeCleanPass() *evidence.RawResult {
	return &evidence.RawResult{
		ID:       "ar-1",
		ToolName: "axe-core",
		RawResults: json.RawMessage(`{
			"violations": [],
			"passes": [{"id": "image-alt", "nodes": [{"html": "<img alt=\"logo\">", "target": ["img.logo"]}]}]
		}`),
		ExecutionTimeMs: 850,
	}
}

func axeSeriousFail() *evidence.RawResult {
	return &evidence.RawResult{
		ID:       "ar-2",
		ToolName: "axe-core",
		RawResults: json.RawMessage(`{
			"violations": [{
				"id": "image-alt", "impact": "serious",
				"help": "Images must have alternate text",
				"tags": ["wcag2a", "wcag111"],
				"nodes": [{"html": "<img src=\"chart.png\">", "target": ["img"],
					"failureSummary": "add an alt attribute"}]
			}]
		}`),
		ExecutionTimeMs: 900,
	}
}

func TestProcessAutomatedResult_ConfidentPass(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, writer := newTestCoordinator(fs)

	out, err := c.ProcessAutomatedResult(context.Background(), "tr-1", axeCleanPass(), "2.4.4")
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalStatus != StatusPassed {
		t.Fatalf("expected passed, got %s", out.FinalStatus)
	}
	if out.NeedsReview || out.ReviewQueueID != "" {
		t.Fatal("confident pass on a standard criterion must not enqueue review")
	}
	if fs.records["tr-1"].Status != StatusPassed {
		t.Fatalf("record status = %s", fs.records["tr-1"].Status)
	}
	if fs.records["tr-1"].ToolUsed != "axe-core" {
		t.Fatalf("tool_used = %s", fs.records["tr-1"].ToolUsed)
	}

	if len(fs.audit) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(fs.audit))
	}
	entry := fs.audit[0]
	if entry.StatusFrom != "pending" || entry.StatusTo != StatusPassed {
		t.Fatalf("transition %s -> %s", entry.StatusFrom, entry.StatusTo)
	}
	if entry.ChangedByType != store.ChangedByAutomatedTool {
		t.Fatalf("changed_by_type = %s", entry.ChangedByType)
	}
	if entry.ChangeReason != store.ChangeReasonInitialAutomated {
		t.Fatalf("change_reason = %s", entry.ChangeReason)
	}
	if entry.AutomatedResultID != "ar-1" {
		t.Fatalf("automated_result_id = %s", entry.AutomatedResultID)
	}
	if entry.ToolConfidenceScore == nil || *entry.ToolConfidenceScore != 0.6 {
		t.Fatalf("tool_confidence_score = %v", entry.ToolConfidenceScore)
	}
	if len(entry.Evidence) == 0 || len(entry.RawToolOutput) == 0 {
		t.Fatal("audit entry must carry evidence and raw tool output")
	}

	if len(writer.events) != 1 {
		t.Fatalf("expected one analytics event, got %d", len(writer.events))
	}
	ev := writer.events[0]
	if ev.TestRecordID != "tr-1" || ev.StatusTo != StatusPassed || ev.NeedsReview {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestProcessAutomatedResult_UnknownToolRoutesToReview(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)

	raw := &evidence.RawResult{
		ID:              "ar-3",
		ToolName:        "toolX",
		RawResults:      json.RawMessage(`{"whatever": true}`),
		ViolationsCount: intPtr(0),
	}
	out, err := c.ProcessAutomatedResult(context.Background(), "tr-1", raw, "1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalStatus != StatusNeedsReview {
		t.Fatalf("expected needs_review, got %s", out.FinalStatus)
	}
	if out.ReviewQueueID == "" {
		t.Fatal("expected a review queue item")
	}

	item := fs.queue[out.ReviewQueueID]
	if item == nil {
		t.Fatal("queue item not persisted")
	}
	if item.Priority != "medium" {
		t.Fatalf("generic medium-confidence evidence on 1.1.1 is medium priority, got %s", item.Priority)
	}
	if item.ReviewCategory != "accessibility_critical" {
		t.Fatalf("review_category = %s", item.ReviewCategory)
	}
	if item.ToolResult != "pass" {
		t.Fatalf("tool_result = %s", item.ToolResult)
	}
	if item.ToolConfidence != "medium" {
		t.Fatalf("tool_confidence = %s", item.ToolConfidence)
	}
	if got := item.DueDate.Sub(item.CreatedAt); got != 24*time.Hour {
		t.Fatalf("medium priority SLA = %s, want 24h", got)
	}
}

func TestProcessAutomatedResult_MandatoryReviewCriterion(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)

	// A clean pass on 3.3.4 still goes to a human: financial error
	// prevention is never auto-accepted.
	out, err := c.ProcessAutomatedResult(context.Background(), "tr-1", axeCleanPass(), "3.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalStatus != StatusNeedsReview {
		t.Fatalf("expected needs_review, got %s", out.FinalStatus)
	}

	item := fs.queue[out.ReviewQueueID]
	if item.Priority != "high" {
		t.Fatalf("3.3.4 is high priority, got %s", item.Priority)
	}
	if item.ReviewCategory != "financial_data" {
		t.Fatalf("review_category = %s", item.ReviewCategory)
	}
	if got := item.DueDate.Sub(item.CreatedAt); got != 12*time.Hour {
		t.Fatalf("high priority SLA = %s, want 12h", got)
	}
}

func TestProcessAutomatedResult_ReusesOpenQueueItem(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)

	first, err := c.ProcessAutomatedResult(context.Background(), "tr-1", axeCleanPass(), "3.3.4")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.ProcessAutomatedResult(context.Background(), "tr-1", axeCleanPass(), "3.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if second.ReviewQueueID != first.ReviewQueueID {
		t.Fatalf("expected queue item reuse, got %s and %s", first.ReviewQueueID, second.ReviewQueueID)
	}
	if len(fs.queue) != 1 {
		t.Fatalf("expected one queue item, got %d", len(fs.queue))
	}
	// Each ingestion still appends its own audit entry.
	if len(fs.audit) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(fs.audit))
	}
}

func TestProcessAutomatedResult_UnknownRecordRollsBack(t *testing.T) {
	fs := newFakeStore()
	c, writer := newTestCoordinator(fs)

	_, err := c.ProcessAutomatedResult(context.Background(), "missing", axeCleanPass(), "2.4.4")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(fs.audit) != 0 || len(fs.queue) != 0 {
		t.Fatal("failed transaction must leave nothing behind")
	}
	if len(writer.events) != 0 {
		t.Fatal("no event may be emitted for a rolled-back transaction")
	}
}

func enqueueReview(t *testing.T, c *Coordinator, recordID, criterion string) string {
	t.Helper()
	out, err := c.ProcessAutomatedResult(context.Background(), recordID, axeSeriousFail(), criterion)
	if err != nil {
		t.Fatal(err)
	}
	if out.ReviewQueueID == "" {
		t.Fatal("setup did not enqueue a review item")
	}
	return out.ReviewQueueID
}

func TestProcessManualReview_AcceptConfirmsFailure(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, writer := newTestCoordinator(fs)
	itemID := enqueueReview(t, c, "tr-1", "1.4.3")

	out, err := c.ProcessManualReview(context.Background(), itemID, &Decision{
		Decision:        DecisionAccept,
		ReviewerID:      "reviewer-7",
		Notes:           "confirmed against the rendered page",
		ConfidenceLevel: "high",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalStatus != StatusFailed {
		t.Fatalf("accepting a fail result yields failed, got %s", out.FinalStatus)
	}

	record := fs.records["tr-1"]
	if record.Status != StatusFailed {
		t.Fatalf("record status = %s", record.Status)
	}
	if record.AssignedReviewer != "reviewer-7" {
		t.Fatalf("assigned_reviewer = %s", record.AssignedReviewer)
	}
	if record.ConfidenceLevel != "high" {
		t.Fatalf("confidence_level = %s", record.ConfidenceLevel)
	}
	if record.ReviewedAt == nil {
		t.Fatal("reviewed_at not set")
	}
	if len(record.Notes) != 1 || record.Notes[0].Text != "confirmed against the rendered page" {
		t.Fatalf("unexpected notes: %+v", record.Notes)
	}

	item := fs.queue[itemID]
	if item.ReviewStatus != store.ReviewStatusCompleted {
		t.Fatalf("review_status = %s", item.ReviewStatus)
	}
	if item.ReviewDecision != DecisionAccept {
		t.Fatalf("review_decision = %s", item.ReviewDecision)
	}
	if item.ReviewCompletedAt == nil || item.TimeToCompletionMin == nil {
		t.Fatal("completion metadata missing")
	}

	// One audit entry from ingestion, one from the review.
	if len(fs.audit) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(fs.audit))
	}
	review := fs.audit[1]
	if review.ChangedByType != store.ChangedByManualTester || review.ChangedByUser != "reviewer-7" {
		t.Fatalf("unexpected audit actor: %s/%s", review.ChangedByType, review.ChangedByUser)
	}
	if review.ChangeReason != store.ChangeReasonManualReview {
		t.Fatalf("change_reason = %s", review.ChangeReason)
	}
	if string(review.Evidence) != `{}` {
		t.Fatalf("review without additional evidence records {}, got %s", review.Evidence)
	}

	last := writer.events[len(writer.events)-1]
	if last.TestRecordID != "tr-1" || last.ReviewDecision != DecisionAccept {
		t.Fatalf("unexpected event: %+v", last)
	}
}

func TestProcessManualReview_RejectFlipsResult(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)
	itemID := enqueueReview(t, c, "tr-1", "1.4.3")

	out, err := c.ProcessManualReview(context.Background(), itemID, &Decision{
		Decision:   DecisionReject,
		ReviewerID: "reviewer-7",
		Notes:      "false positive, decorative image",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalStatus != StatusPassed {
		t.Fatalf("rejecting a fail result yields passed, got %s", out.FinalStatus)
	}
}

func TestProcessManualReview_RejectOverturnsQuestionablePass(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)

	// A warning-only pa11y pass parks the record in review with a pass
	// tool result.
	raw := &evidence.RawResult{
		ID:       "ar-4",
		ToolName: "pa11y",
		RawResults: json.RawMessage(`{"issues": [
			{"code": "WCAG2AA.Principle1.Guideline1_4.1_4_3.G145", "type": "warning",
			 "message": "Check contrast of large text", "selector": "h1"}
		]}`),
	}
	ingested, err := c.ProcessAutomatedResult(context.Background(), "tr-1", raw, "2.4.4")
	if err != nil {
		t.Fatal(err)
	}
	if ingested.FinalStatus != StatusNeedsReview || ingested.ReviewQueueID == "" {
		t.Fatalf("setup: expected queued needs_review, got %+v", ingested)
	}
	if fs.queue[ingested.ReviewQueueID].ToolResult != "pass" {
		t.Fatalf("setup: tool_result = %s", fs.queue[ingested.ReviewQueueID].ToolResult)
	}

	out, err := c.ProcessManualReview(context.Background(), ingested.ReviewQueueID, &Decision{
		Decision:   DecisionReject,
		ReviewerID: "reviewer-7",
		Notes:      "contrast is actually insufficient",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalStatus != StatusFailed {
		t.Fatalf("rejecting a pass result yields failed, got %s", out.FinalStatus)
	}
	if fs.records["tr-1"].Status != StatusFailed {
		t.Fatalf("record status = %s", fs.records["tr-1"].Status)
	}
	review := fs.audit[len(fs.audit)-1]
	if review.StatusFrom != StatusNeedsReview || review.StatusTo != StatusFailed {
		t.Fatalf("transition %s -> %s", review.StatusFrom, review.StatusTo)
	}
	if review.ChangedByType != store.ChangedByManualTester {
		t.Fatalf("changed_by_type = %s", review.ChangedByType)
	}
}

func TestProcessManualReview_ModifyWithoutOverrideReentersReview(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)
	itemID := enqueueReview(t, c, "tr-1", "1.4.3")

	out, err := c.ProcessManualReview(context.Background(), itemID, &Decision{
		Decision:   DecisionModify,
		ReviewerID: "reviewer-7",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.FinalStatus != StatusNeedsReview {
		t.Fatalf("modify without override re-enters review, got %s", out.FinalStatus)
	}
}

func TestProcessManualReview_InvalidDecisionRejected(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)
	itemID := enqueueReview(t, c, "tr-1", "1.4.3")
	auditBefore := len(fs.audit)

	_, err := c.ProcessManualReview(context.Background(), itemID, &Decision{
		Decision:   "escalate",
		ReviewerID: "reviewer-7",
	})
	if !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
	if len(fs.audit) != auditBefore {
		t.Fatal("invalid decision must not persist anything")
	}
	if fs.queue[itemID].ReviewStatus == store.ReviewStatusCompleted {
		t.Fatal("queue item must remain open")
	}
}

func TestProcessManualReview_DoubleCloseRejected(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)
	itemID := enqueueReview(t, c, "tr-1", "1.4.3")

	d := &Decision{Decision: DecisionAccept, ReviewerID: "reviewer-7"}
	if _, err := c.ProcessManualReview(context.Background(), itemID, d); err != nil {
		t.Fatal(err)
	}

	recordBefore := *fs.records["tr-1"]
	auditBefore := len(fs.audit)

	_, err := c.ProcessManualReview(context.Background(), itemID, &Decision{
		Decision:   DecisionReject,
		ReviewerID: "reviewer-9",
	})
	if !errors.Is(err, store.ErrQueueItemClosed) {
		t.Fatalf("expected ErrQueueItemClosed, got %v", err)
	}
	if fs.records["tr-1"].Status != recordBefore.Status {
		t.Fatal("second resolution must not change the record")
	}
	if len(fs.audit) != auditBefore {
		t.Fatal("second resolution must not append audit entries")
	}
}

func TestProcessManualReview_NotesAppend(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	existing := store.NoteEntry{
		Timestamp: time.Now().UTC().Add(-time.Hour),
		Author:    "scanner",
		Text:      "flagged during weekly crawl",
	}
	fs.records["tr-1"].Notes = []store.NoteEntry{existing}
	c, _ := newTestCoordinator(fs)
	itemID := enqueueReview(t, c, "tr-1", "1.4.3")

	_, err := c.ProcessManualReview(context.Background(), itemID, &Decision{
		Decision:   DecisionAccept,
		ReviewerID: "reviewer-7",
		Notes:      "contrast ratio measured at 2.8:1",
	})
	if err != nil {
		t.Fatal(err)
	}

	notes := fs.records["tr-1"].Notes
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0] != existing {
		t.Fatal("existing note was rewritten")
	}
	if notes[1].Author != "reviewer-7" || notes[1].Text != "contrast ratio measured at 2.8:1" {
		t.Fatalf("unexpected appended note: %+v", notes[1])
	}
}

func TestProcessManualReview_UnknownItem(t *testing.T) {
	fs := newFakeStore()
	c, _ := newTestCoordinator(fs)
	_, err := c.ProcessManualReview(context.Background(), "nope", &Decision{
		Decision:   DecisionAccept,
		ReviewerID: "reviewer-7",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditChainIsContiguous(t *testing.T) {
	fs := newFakeStore()
	fs.addRecord("tr-1", "pending")
	c, _ := newTestCoordinator(fs)

	itemID := enqueueReview(t, c, "tr-1", "1.4.3")
	if _, err := c.ProcessManualReview(context.Background(), itemID, &Decision{
		Decision:   DecisionAccept,
		ReviewerID: "reviewer-7",
	}); err != nil {
		t.Fatal(err)
	}
	// A later rescan of the same record continues the chain.
	if _, err := c.ProcessAutomatedResult(context.Background(), "tr-1", axeCleanPass(), "2.4.4"); err != nil {
		t.Fatal(err)
	}

	if len(fs.audit) < 3 {
		t.Fatalf("expected at least 3 audit entries, got %d", len(fs.audit))
	}
	if fs.audit[0].StatusFrom != "pending" {
		t.Fatalf("chain must start from the initial status, got %s", fs.audit[0].StatusFrom)
	}
	for i := 1; i < len(fs.audit); i++ {
		if fs.audit[i].StatusFrom != fs.audit[i-1].StatusTo {
			t.Fatalf("chain broken at %d: %s -> %s then from %s",
				i, fs.audit[i-1].StatusFrom, fs.audit[i-1].StatusTo, fs.audit[i].StatusFrom)
		}
	}
}

func TestNoteFromDecision_DefaultsText(t *testing.T) {
	at := time.Now().UTC()
	note := NoteFromDecision(&Decision{Decision: DecisionReject, ReviewerID: "r1"}, at)
	if note.Text != "review decision: reject" {
		t.Fatalf("unexpected default text: %q", note.Text)
	}
	if note.Author != "r1" || !note.Timestamp.Equal(at) {
		t.Fatalf("unexpected note: %+v", note)
	}
}
