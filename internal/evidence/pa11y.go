package evidence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// pa11ySchema describes the issue list Pa11y emits.
const pa11ySchema = `{
	"type": "object",
	"properties": {
		"issues": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["code", "type"],
				"properties": {
					"code": {"type": "string"},
					"type": {"type": "string", "enum": ["error", "warning", "notice"]},
					"message": {"type": "string"},
					"context": {"type": "string"},
					"selector": {"type": "string"}
				}
			}
		}
	},
	"required": ["issues"]
}`

type pa11yResults struct {
	Issues []pa11yIssue `json:"issues"`
}

type pa11yIssue struct {
	Code     string `json:"code"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Context  string `json:"context"`
	Selector string `json:"selector"`
}

// Pa11yExtractor normalizes Pa11y (HTML_CodeSniffer) results. Errors are
// concrete rule failures and score high confidence; warnings and notices are
// hints, not failures, so a warning-only run passes but is sent to review.
type Pa11yExtractor struct {
	schema *jsonschema.Schema
}

func NewPa11yExtractor() *Pa11yExtractor {
	return &Pa11yExtractor{schema: mustCompileSchema("pa11y.json", pa11ySchema)}
}

func (e *Pa11yExtractor) Name() string { return "pa11y" }

func (e *Pa11yExtractor) Matches(toolName string) bool {
	return toolName == "pa11y"
}

func (e *Pa11yExtractor) Extract(raw *RawResult, criterion string) (*Evidence, error) {
	doc, err := validatePayload(e.schema, raw.RawResults)
	if err != nil {
		return nil, fmt.Errorf("pa11y: %w", err)
	}

	buf, _ := json.Marshal(doc)
	var results pa11yResults
	if err := json.Unmarshal(buf, &results); err != nil {
		return nil, fmt.Errorf("pa11y: %w", err)
	}

	var errs, warnings []pa11yIssue
	for _, iss := range results.Issues {
		switch iss.Type {
		case "error":
			errs = append(errs, iss)
		case "warning":
			warnings = append(warnings, iss)
		}
	}

	exec := ExecutionMeta{
		ToolName:   raw.ToolName,
		Method:     "automated",
		Scope:      "page",
		DurationMs: raw.ExecutionTimeMs,
		Timestamp:  time.Now().UTC(),
	}

	if len(errs) > 0 {
		return e.extractFail(errs, criterion, exec), nil
	}
	return e.extractPass(results.Issues, warnings, criterion, exec), nil
}

func (e *Pa11yExtractor) extractFail(errs []pa11yIssue, criterion string, exec ExecutionMeta) *Evidence {
	violations := make([]Violation, 0, len(errs))
	for _, iss := range errs {
		violations = append(violations, Violation{
			RuleID:       iss.Code,
			Impact:       "serious",
			Help:         iss.Message,
			WCAGCriteria: []string{criterion},
			Elements: []Element{{
				Selector: iss.Selector,
				HTML:     truncateHTML(iss.Context),
				Fix:      iss.Message,
			}},
		})
	}

	ev := &Evidence{
		Type:            TypeAutomatedFail,
		ToolResult:      ToolResultFail,
		ConfidenceLevel: ConfidenceHigh,
		Execution:       exec,
		Fail:            &FailEvidence{Violations: violations},
		Review: ReviewIndicators{
			ComplexityScore:   clamp01(float64(len(errs)) / 15.0),
			FalsePositiveRisk: 0.2,
		},
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

func (e *Pa11yExtractor) extractPass(all, warnings []pa11yIssue, criterion string, exec ExecutionMeta) *Evidence {
	elements := make([]Element, 0, len(warnings))
	for _, iss := range warnings {
		elements = append(elements, Element{
			Selector: iss.Selector,
			HTML:     truncateHTML(iss.Context),
		})
	}

	review := ReviewIndicators{
		ComplexityScore:   clamp01(float64(len(all)) / 20.0),
		FalsePositiveRisk: 0.3,
	}
	if len(warnings) > 0 {
		review.RequiresHumanReview = true
		review.ReviewReason = fmt.Sprintf("pa11y raised %d warning(s) without errors", len(warnings))
		review.FalsePositiveRisk = 0.5
	}

	ev := &Evidence{
		Type:            TypeAutomatedPass,
		ToolResult:      ToolResultPass,
		ConfidenceLevel: ConfidenceMedium,
		Execution:       exec,
		Pass: &PassEvidence{
			RulesPassed:    []string{},
			ElementsTested: elements,
			Notes:          fmt.Sprintf("pa11y reported no errors for criterion %s", criterion),
		},
		Review: review,
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}
