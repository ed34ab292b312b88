package api

import (
	"encoding/json"
	"time"
)

// ErrorResp is the uniform error body.
type ErrorResp struct {
	Detail string `json:"detail"`
}

// IngestResultReq is the body for POST /api/audit/records/{record_id}/results.
type IngestResultReq struct {
	Criterion       string          `json:"wcag_criterion"`
	ResultID        string          `json:"id,omitempty"`
	ToolName        string          `json:"tool_name"`
	RawResults      json.RawMessage `json:"raw_results"`
	ViolationsCount *int            `json:"violations_count,omitempty"`
	ExecutionTimeMs int64           `json:"execution_time_ms,omitempty"`
}

// IngestResultResp mirrors the coordinator's automated outcome.
type IngestResultResp struct {
	AuditLogID    string          `json:"audit_log_id"`
	ReviewQueueID *string         `json:"review_queue_id"`
	FinalStatus   string          `json:"final_status"`
	NeedsReview   bool            `json:"needs_review"`
	Evidence      json.RawMessage `json:"evidence"`
}

// ResolveReviewReq is the body for POST /api/audit/reviews/{item_id}.
type ResolveReviewReq struct {
	Decision           string          `json:"decision"`
	ReviewerID         string          `json:"reviewer_id"`
	Notes              string          `json:"notes,omitempty"`
	ConfidenceLevel    string          `json:"confidence_level,omitempty"`
	OverrideStatus     string          `json:"override_status,omitempty"`
	AdditionalEvidence json.RawMessage `json:"additional_evidence,omitempty"`
	EvidenceFiles      []string        `json:"evidence_files,omitempty"`
}

// ResolveReviewResp mirrors the coordinator's review outcome.
type ResolveReviewResp struct {
	AuditLogID     string `json:"audit_log_id"`
	FinalStatus    string `json:"final_status"`
	ReviewDecision string `json:"review_decision"`
}

// AuditEntryResp is one audit log entry in the history view.
type AuditEntryResp struct {
	ID                  string          `json:"id"`
	TestRecordID        string          `json:"test_record_id"`
	StatusFrom          string          `json:"status_from"`
	StatusTo            string          `json:"status_to"`
	ChangedByType       string          `json:"changed_by_type"`
	ChangedByUser       *string         `json:"changed_by_user"`
	ToolName            *string         `json:"tool_name"`
	ChangeReason        string          `json:"change_reason"`
	ChangeDescription   string          `json:"change_description"`
	ReviewerNotes       *string         `json:"reviewer_notes"`
	Evidence            json.RawMessage `json:"evidence"`
	AutomatedResultID   *string         `json:"automated_result_id"`
	ToolConfidenceScore *float64        `json:"tool_confidence_score"`
	ToolExecutionTimeMs *int64          `json:"tool_execution_time_ms"`
	CreatedAt           time.Time       `json:"created_at"`
}

// HistoryResp is the ordered history for a test record.
type HistoryResp struct {
	TestRecordID string           `json:"test_record_id"`
	Entries      []AuditEntryResp `json:"entries"`
}

// QueueItemResp is one review queue item in the dashboard view.
type QueueItemResp struct {
	ID                string          `json:"id"`
	TestRecordID      string          `json:"test_record_id"`
	AutomatedResultID *string         `json:"automated_result_id"`
	ToolName          string          `json:"tool_name"`
	ToolResult        string          `json:"tool_result"`
	WCAGCriterion     string          `json:"wcag_criterion"`
	AutomatedEvidence json.RawMessage `json:"automated_evidence"`
	Priority          string          `json:"priority"`
	ReviewCategory    string          `json:"review_category"`
	ComplexityScore   float64         `json:"complexity_score"`
	FalsePositiveRisk float64         `json:"false_positive_risk"`
	ToolConfidence    string          `json:"tool_confidence"`
	ReviewStatus      string          `json:"review_status"`
	AssignedReviewer  *string         `json:"assigned_reviewer"`
	ReviewDecision    *string         `json:"review_decision"`
	DueDate           time.Time       `json:"due_date"`
	CreatedAt         time.Time       `json:"created_at"`
	ReviewCompletedAt *time.Time      `json:"review_completed_at"`
}

// QueueListResp is the paginated queue listing.
type QueueListResp struct {
	Items    []QueueItemResp `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}
