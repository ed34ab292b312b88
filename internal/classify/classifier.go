// Package classify turns normalized evidence into a preliminary status and
// review routing decision. All domain policy that is independent of any one
// scanner lives here: the per-extractor review indicators can be overridden
// upward by the criterion allow-list, never downward.
package classify

import (
	"github.com/JohnDHoinville/vpat-report-sub005/internal/evidence"
)

// Status is a preliminary test outcome derived from evidence alone.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Priority orders review queue items. The automated path only ever assigns
// high or medium: critical is reserved for queue-side escalation (SLA aging
// or explicit policy) and low is never produced automatically.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Category buckets a criterion for reviewer routing.
type Category string

const (
	CategoryFinancialData         Category = "financial_data"
	CategoryLegalCompliance       Category = "legal_compliance"
	CategoryAccessibilityCritical Category = "accessibility_critical"
	CategoryStandard              Category = "standard"
)

// Classification is the result of classifying one piece of evidence.
type Classification struct {
	PreliminaryStatus Status
	NeedsReview       bool
	ReviewReason      string
	Priority          Priority
	ReviewCategory    Category
}

// FinalStatus folds review necessity into the status the test record takes:
// anything needing review parks at needs_review until a human resolves it.
func (c Classification) FinalStatus() string {
	if c.NeedsReview {
		return "needs_review"
	}
	return string(c.PreliminaryStatus)
}

// Classify derives the preliminary status, review necessity, priority and
// review category for evidence on the given WCAG criterion. Pure function.
func Classify(ev *evidence.Evidence, criterion string) Classification {
	c := Classification{
		PreliminaryStatus: preliminaryStatus(ev),
		NeedsReview:       ev.Review.RequiresHumanReview,
		ReviewReason:      ev.Review.ReviewReason,
		ReviewCategory:    CategoryFor(criterion),
	}

	// Policy override: certain criteria always get human eyes regardless of
	// how confident the tool was. This only ever adds review, never removes.
	if alwaysReviewCriteria[criterion] && !c.NeedsReview {
		c.NeedsReview = true
		c.ReviewReason = "criterion requires mandatory human review"
	}

	if criticalCriteria[criterion] || ev.ConfidenceLevel == evidence.ConfidenceLow {
		c.Priority = PriorityHigh
	} else {
		c.Priority = PriorityMedium
	}

	return c
}

func preliminaryStatus(ev *evidence.Evidence) Status {
	switch ev.ToolResult {
	case evidence.ToolResultPass:
		return StatusPassed
	case evidence.ToolResultFail:
		return StatusFailed
	default:
		return StatusPending
	}
}

// CategoryFor returns the review category for a criterion. Pure lookup,
// default standard.
func CategoryFor(criterion string) Category {
	if cat, ok := categoryByCriterion[criterion]; ok {
		return cat
	}
	return CategoryStandard
}

// AlwaysReview reports whether the criterion is on the mandatory-review list.
func AlwaysReview(criterion string) bool {
	return alwaysReviewCriteria[criterion]
}
