package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/JohnDHoinville/vpat-report-sub005/internal/evidence"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/store"
	"github.com/JohnDHoinville/vpat-report-sub005/internal/workflow"
)

// handleIngestResult implements POST /api/audit/records/{record_id}/results.
func (d *Dependencies) handleIngestResult(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("record_id")

	var req IngestResultReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.ToolName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "tool_name is required"})
		return
	}
	if req.Criterion == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "wcag_criterion is required"})
		return
	}

	raw := &evidence.RawResult{
		ID:              req.ResultID,
		ToolName:        req.ToolName,
		RawResults:      req.RawResults,
		ViolationsCount: req.ViolationsCount,
		ExecutionTimeMs: req.ExecutionTimeMs,
	}

	outcome, err := d.Engine.ProcessAutomatedResult(r.Context(), recordID, raw, req.Criterion)
	if err != nil {
		d.writeEngineError(w, err, "failed to process automated result")
		return
	}

	evidenceJSON, err := json.Marshal(outcome.Evidence)
	if err != nil {
		d.Logger.Error("failed to marshal evidence", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to encode evidence"})
		return
	}

	writeJSON(w, http.StatusOK, IngestResultResp{
		AuditLogID:    outcome.AuditLogID,
		ReviewQueueID: nilIfEmpty(outcome.ReviewQueueID),
		FinalStatus:   outcome.FinalStatus,
		NeedsReview:   outcome.NeedsReview,
		Evidence:      evidenceJSON,
	})
}

// handleResolveReview implements POST /api/audit/reviews/{item_id}.
func (d *Dependencies) handleResolveReview(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("item_id")

	var req ResolveReviewReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Decision == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "decision is required"})
		return
	}
	if req.ReviewerID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "reviewer_id is required"})
		return
	}

	outcome, err := d.Engine.ProcessManualReview(r.Context(), itemID, &workflow.Decision{
		Decision:           req.Decision,
		ReviewerID:         req.ReviewerID,
		Notes:              req.Notes,
		ConfidenceLevel:    req.ConfidenceLevel,
		OverrideStatus:     req.OverrideStatus,
		AdditionalEvidence: req.AdditionalEvidence,
		EvidenceFiles:      req.EvidenceFiles,
	})
	if err != nil {
		d.writeEngineError(w, err, "failed to process manual review")
		return
	}

	writeJSON(w, http.StatusOK, ResolveReviewResp{
		AuditLogID:     outcome.AuditLogID,
		FinalStatus:    outcome.FinalStatus,
		ReviewDecision: outcome.ReviewDecision,
	})
}

// handleListHistory implements GET /api/audit/records/{record_id}/history.
func (d *Dependencies) handleListHistory(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("record_id")

	entries, err := d.Reader.ListAuditEntries(r.Context(), recordID)
	if err != nil {
		d.Logger.Error("failed to list audit entries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list history"})
		return
	}

	resp := HistoryResp{
		TestRecordID: recordID,
		Entries:      make([]AuditEntryResp, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, AuditEntryResp{
			ID:                  e.ID,
			TestRecordID:        e.TestRecordID,
			StatusFrom:          e.StatusFrom,
			StatusTo:            e.StatusTo,
			ChangedByType:       e.ChangedByType,
			ChangedByUser:       nilIfEmpty(e.ChangedByUser),
			ToolName:            nilIfEmpty(e.ToolName),
			ChangeReason:        e.ChangeReason,
			ChangeDescription:   e.ChangeDescription,
			ReviewerNotes:       nilIfEmpty(e.ReviewerNotes),
			Evidence:            e.Evidence,
			AutomatedResultID:   nilIfEmpty(e.AutomatedResultID),
			ToolConfidenceScore: e.ToolConfidenceScore,
			ToolExecutionTimeMs: e.ToolExecutionTimeMs,
			CreatedAt:           e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListQueue implements GET /api/audit/queue.
func (d *Dependencies) handleListQueue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := store.ListQueueParams{
		Page:     queryInt(q, "page", 1),
		PageSize: queryInt(q, "page_size", 50),
	}
	if params.PageSize > 200 {
		params.PageSize = 200
	}
	if params.Page < 1 {
		params.Page = 1
	}

	if v := q.Get("review_status"); v != "" {
		params.ReviewStatus = &v
	}
	if v := q.Get("priority"); v != "" {
		params.Priority = &v
	}
	if v := q.Get("wcag_criterion"); v != "" {
		params.WCAGCriterion = &v
	}
	if v := q.Get("assigned_reviewer"); v != "" {
		params.AssignedReviewer = &v
	}

	items, total, err := d.Reader.ListQueueItems(r.Context(), params)
	if err != nil {
		d.Logger.Error("failed to list queue items", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list review queue"})
		return
	}

	resp := QueueListResp{
		Items:    make([]QueueItemResp, 0, len(items)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, QueueItemResp{
			ID:                item.ID,
			TestRecordID:      item.TestRecordID,
			AutomatedResultID: nilIfEmpty(item.AutomatedResultID),
			ToolName:          item.ToolName,
			ToolResult:        item.ToolResult,
			WCAGCriterion:     item.WCAGCriterion,
			AutomatedEvidence: item.AutomatedEvidence,
			Priority:          item.Priority,
			ReviewCategory:    item.ReviewCategory,
			ComplexityScore:   item.ComplexityScore,
			FalsePositiveRisk: item.FalsePositiveRisk,
			ToolConfidence:    item.ToolConfidence,
			ReviewStatus:      item.ReviewStatus,
			AssignedReviewer:  nilIfEmpty(item.AssignedReviewer),
			ReviewDecision:    nilIfEmpty(item.ReviewDecision),
			DueDate:           item.DueDate,
			CreatedAt:         item.CreatedAt,
			ReviewCompletedAt: item.ReviewCompletedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeEngineError maps engine error taxonomy to HTTP statuses.
func (d *Dependencies) writeEngineError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Not found."})
	case errors.Is(err, store.ErrQueueItemClosed):
		writeJSON(w, http.StatusConflict, ErrorResp{Detail: "Review already completed."})
	case errors.Is(err, workflow.ErrInvalidDecision):
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: err.Error()})
	default:
		d.Logger.Error(logMsg, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Internal error"})
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func queryInt(q interface{ Get(string) string }, key string, defaultVal int) int {
	v := q.Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
