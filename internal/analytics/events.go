// Package analytics mirrors status transitions into ClickHouse for the
// compliance dashboard. The relational audit log remains the source of
// truth; these events are a queryable convenience stream.
package analytics

import "time"

// EventWriter is the interface for writing status change events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *StatusChangeEvent)
	Close()
}

// StatusChangeEvent represents one committed test record transition.
type StatusChangeEvent struct {
	EventID           string
	TestRecordID      string
	Timestamp         time.Time
	StatusFrom        string
	StatusTo          string
	ChangedByType     string
	ChangedByUser     string
	ToolName          string
	WCAGCriterion     string
	ReviewCategory    string
	Priority          string
	NeedsReview       bool
	ConfidenceLevel   string
	ComplexityScore   float64
	FalsePositiveRisk float64
	QueueItemID       string
	ReviewDecision    string
	LatencyMs         float32
}
