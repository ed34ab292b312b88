package evidence

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// lighthouseSchema describes the accessibility category slice of a
// Lighthouse report.
const lighthouseSchema = `{
	"type": "object",
	"properties": {
		"score": {"type": ["number", "null"], "minimum": 0, "maximum": 1},
		"audits": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"score": {"type": ["number", "null"]},
					"title": {"type": "string"},
					"description": {"type": "string"}
				}
			}
		}
	},
	"required": ["score", "audits"]
}`

type lighthouseResults struct {
	Score  *float64                   `json:"score"`
	Audits map[string]lighthouseAudit `json:"audits"`
}

type lighthouseAudit struct {
	Score       *float64 `json:"score"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// LighthouseExtractor normalizes Lighthouse accessibility reports.
// Lighthouse is score-based rather than assertion-based, so confidence
// tracks the category score: a pass is only as trustworthy as the score is
// high, and mid-range scores always go to review.
type LighthouseExtractor struct {
	schema *jsonschema.Schema
}

func NewLighthouseExtractor() *LighthouseExtractor {
	return &LighthouseExtractor{schema: mustCompileSchema("lighthouse.json", lighthouseSchema)}
}

func (e *LighthouseExtractor) Name() string { return "lighthouse" }

func (e *LighthouseExtractor) Matches(toolName string) bool {
	return toolName == "lighthouse"
}

func (e *LighthouseExtractor) Extract(raw *RawResult, criterion string) (*Evidence, error) {
	doc, err := validatePayload(e.schema, raw.RawResults)
	if err != nil {
		return nil, fmt.Errorf("lighthouse: %w", err)
	}

	buf, _ := json.Marshal(doc)
	var results lighthouseResults
	if err := json.Unmarshal(buf, &results); err != nil {
		return nil, fmt.Errorf("lighthouse: %w", err)
	}
	if results.Score == nil {
		return nil, fmt.Errorf("lighthouse: category score is null")
	}
	score := *results.Score

	// Split audits into passed and failed; a null audit score means
	// not applicable and is ignored.
	var passed, failed []string
	for id, a := range results.Audits {
		if a.Score == nil {
			continue
		}
		if *a.Score >= 1.0 {
			passed = append(passed, id)
		} else {
			failed = append(failed, id)
		}
	}
	sort.Strings(passed)
	sort.Strings(failed)

	exec := ExecutionMeta{
		ToolName:   raw.ToolName,
		Method:     "automated",
		Scope:      "page",
		DurationMs: raw.ExecutionTimeMs,
		Timestamp:  time.Now().UTC(),
	}

	if len(failed) > 0 {
		return e.extractFail(results, failed, score, criterion, exec), nil
	}
	return e.extractPass(passed, score, criterion, exec), nil
}

func (e *LighthouseExtractor) extractPass(passed []string, score float64, criterion string, exec ExecutionMeta) *Evidence {
	confidence := confidenceFromScore(score)

	review := ReviewIndicators{
		ComplexityScore:   clamp01(float64(len(passed)) / 30.0),
		FalsePositiveRisk: clamp01(1.0 - score),
	}
	if score < 0.9 {
		review.RequiresHumanReview = true
		review.ReviewReason = fmt.Sprintf("lighthouse accessibility score %.2f below the trust threshold", score)
	}

	ev := &Evidence{
		Type:            TypeAutomatedPass,
		ToolResult:      ToolResultPass,
		ConfidenceLevel: confidence,
		Execution:       exec,
		Pass: &PassEvidence{
			RulesPassed:    passed,
			ElementsTested: []Element{},
			Notes:          fmt.Sprintf("lighthouse accessibility score %.2f with no failing audits for criterion %s", score, criterion),
		},
		Review: review,
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

func (e *LighthouseExtractor) extractFail(results lighthouseResults, failed []string, score float64, criterion string, exec ExecutionMeta) *Evidence {
	violations := make([]Violation, 0, len(failed))
	for _, id := range failed {
		a := results.Audits[id]
		violations = append(violations, Violation{
			RuleID:       id,
			Impact:       "moderate",
			Help:         a.Title,
			WCAGCriteria: []string{criterion},
			Elements:     []Element{},
		})
	}

	// A failing Lighthouse audit is still heuristic output; it is weaker
	// evidence than a DOM-level assertion failure.
	ev := &Evidence{
		Type:            TypeAutomatedFail,
		ToolResult:      ToolResultFail,
		ConfidenceLevel: ConfidenceMedium,
		Execution:       exec,
		Fail:            &FailEvidence{Violations: violations},
		Review: ReviewIndicators{
			RequiresHumanReview: true,
			ReviewReason:        "lighthouse failures are score-based and need manual confirmation",
			ComplexityScore:     clamp01(float64(len(failed)) / 10.0),
			FalsePositiveRisk:   clamp01(score + 0.2),
		},
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

// confidenceFromScore maps a 0..1 Lighthouse score to a confidence bucket.
func confidenceFromScore(score float64) Confidence {
	switch {
	case score >= 0.9:
		return ConfidenceHigh
	case score >= 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
