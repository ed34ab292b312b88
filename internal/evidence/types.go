package evidence

import (
	"encoding/json"
	"time"
)

// Type distinguishes the two evidentiary shapes an automated result can take.
type Type string

const (
	TypeAutomatedPass Type = "automated_pass"
	TypeAutomatedFail Type = "automated_fail"
)

// ToolResult is the raw outcome reported by the scanner.
type ToolResult string

const (
	ToolResultPass ToolResult = "pass"
	ToolResultFail ToolResult = "fail"
)

// Confidence buckets how much the extracted evidence can be trusted
// without a human looking at it.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// RawResult is the opaque payload handed over by a scanner wrapper.
// Only the extractor strategies are allowed to interpret RawResults.
type RawResult struct {
	ID              string          `json:"id,omitempty"`
	ToolName        string          `json:"tool_name"`
	RawResults      json.RawMessage `json:"raw_results"`
	ViolationsCount *int            `json:"violations_count,omitempty"`
	ExecutionTimeMs int64           `json:"execution_time_ms,omitempty"`
}

// Evidence is the normalized, tool-agnostic record of why a test passed
// or failed. Immutable once created: it is snapshotted verbatim into the
// audit log entry that references it and never touched again.
type Evidence struct {
	Type            Type             `json:"evidence_type"`
	ToolResult      ToolResult       `json:"tool_result"`
	ConfidenceLevel Confidence       `json:"confidence_level"`
	Strength        string           `json:"evidence_strength"`
	Execution       ExecutionMeta    `json:"execution"`
	Pass            *PassEvidence    `json:"pass_evidence,omitempty"`
	Fail            *FailEvidence    `json:"fail_evidence,omitempty"`
	Review          ReviewIndicators `json:"review_indicators"`
}

// ExecutionMeta records how and when the scanner ran.
type ExecutionMeta struct {
	ToolName   string    `json:"tool_name"`
	Method     string    `json:"method"`
	Scope      string    `json:"scope"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// PassEvidence lists the rules satisfied and the elements that were verified.
type PassEvidence struct {
	RulesPassed    []string  `json:"rules_passed"`
	ElementsTested []Element `json:"elements_tested"`
	Notes          string    `json:"notes,omitempty"`
}

// FailEvidence lists violations with severity and remediation guidance.
type FailEvidence struct {
	Violations []Violation `json:"violations"`
}

// Violation is one failed rule and the elements it affects.
type Violation struct {
	RuleID       string    `json:"rule_id"`
	Impact       string    `json:"impact,omitempty"`
	Help         string    `json:"help,omitempty"`
	HelpURL      string    `json:"help_url,omitempty"`
	WCAGCriteria []string  `json:"wcag_criteria,omitempty"`
	Elements     []Element `json:"affected_elements"`
}

// Element is a bounded description of a DOM node involved in a result.
// HTML is always truncated to htmlExcerptCap to keep audit records
// storage-bounded.
type Element struct {
	Selector string `json:"selector,omitempty"`
	HTML     string `json:"html,omitempty"`
	Fix      string `json:"fix,omitempty"`
}

// ReviewIndicators carry the extractor's judgement on whether a human
// needs to verify the result before it can be trusted.
type ReviewIndicators struct {
	RequiresHumanReview bool    `json:"requires_human_review"`
	ReviewReason        string  `json:"review_reason,omitempty"`
	ComplexityScore     float64 `json:"complexity_score"`
	FalsePositiveRisk   float64 `json:"false_positive_risk"`
}

// htmlExcerptCap bounds HTML snippets embedded in evidence.
const htmlExcerptCap = 200

// truncateHTML caps an HTML excerpt at htmlExcerptCap characters.
func truncateHTML(s string) string {
	if len(s) <= htmlExcerptCap {
		return s
	}
	return s[:htmlExcerptCap]
}

// clamp01 bounds a score to [0, 1].
func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// strengthFor derives the evidence_strength label from confidence.
func strengthFor(c Confidence) string {
	switch c {
	case ConfidenceHigh:
		return "strong"
	case ConfidenceMedium:
		return "moderate"
	default:
		return "weak"
	}
}
