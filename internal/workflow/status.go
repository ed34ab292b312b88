package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/JohnDHoinville/vpat-report-sub005/internal/classify"
)

// Test record statuses. There is no terminal state: passed and failed
// records can be revisited by a later manual review, and an inconclusive
// review sends a record back to needs_review.
const (
	StatusPending     = "pending"
	StatusPassed      = "passed"
	StatusFailed      = "failed"
	StatusNeedsReview = "needs_review"
)

// Manual review decisions.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
	DecisionModify = "modify"
)

// ErrInvalidDecision is returned when a manual review decision is not one of
// accept, reject or modify, or carries an unknown override status.
var ErrInvalidDecision = errors.New("invalid review decision")

// resolveDecision maps (tool result, decision) to the record's final status.
// accept trusts the tool as-is, reject flips it, modify applies the explicit
// override or re-enters review when none was given.
func resolveDecision(toolResult string, d *Decision) (string, error) {
	switch d.Decision {
	case DecisionAccept:
		return statusFromToolResult(toolResult), nil
	case DecisionReject:
		return flipStatus(statusFromToolResult(toolResult)), nil
	case DecisionModify:
		if d.OverrideStatus == "" {
			return StatusNeedsReview, nil
		}
		switch d.OverrideStatus {
		case StatusPassed, StatusFailed, StatusNeedsReview, StatusPending:
			return d.OverrideStatus, nil
		default:
			return "", fmt.Errorf("%w: override status %q", ErrInvalidDecision, d.OverrideStatus)
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, d.Decision)
	}
}

func statusFromToolResult(toolResult string) string {
	if toolResult == "fail" {
		return StatusFailed
	}
	return StatusPassed
}

func flipStatus(status string) string {
	if status == StatusPassed {
		return StatusFailed
	}
	return StatusPassed
}

// slaFor returns the review deadline offset for a queue priority.
func slaFor(priority classify.Priority) time.Duration {
	switch priority {
	case classify.PriorityCritical:
		return 4 * time.Hour
	case classify.PriorityHigh:
		return 12 * time.Hour
	case classify.PriorityLow:
		return 48 * time.Hour
	default:
		return 24 * time.Hour
	}
}
