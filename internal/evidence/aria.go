package evidence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ariaSchema describes the check list produced by the Playwright-driven
// ARIA verification scripts.
const ariaSchema = `{
	"type": "object",
	"properties": {
		"checks": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "passed"],
				"properties": {
					"name": {"type": "string"},
					"passed": {"type": "boolean"},
					"selector": {"type": "string"},
					"message": {"type": "string"},
					"snippet": {"type": "string"}
				}
			}
		}
	},
	"required": ["checks"]
}`

type ariaResults struct {
	Checks []ariaCheck `json:"checks"`
}

type ariaCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Selector string `json:"selector"`
	Message  string `json:"message"`
	Snippet  string `json:"snippet"`
}

// ARIAExtractor normalizes results from the Playwright ARIA scripts. These
// assert concrete attribute and focus state against a live page, so both
// outcomes carry high confidence.
type ARIAExtractor struct {
	schema *jsonschema.Schema
}

func NewARIAExtractor() *ARIAExtractor {
	return &ARIAExtractor{schema: mustCompileSchema("aria.json", ariaSchema)}
}

func (e *ARIAExtractor) Name() string { return "aria" }

func (e *ARIAExtractor) Matches(toolName string) bool {
	return toolName == "aria" || toolName == "playwright" || toolName == "playwrightaria"
}

func (e *ARIAExtractor) Extract(raw *RawResult, criterion string) (*Evidence, error) {
	doc, err := validatePayload(e.schema, raw.RawResults)
	if err != nil {
		return nil, fmt.Errorf("aria: %w", err)
	}

	buf, _ := json.Marshal(doc)
	var results ariaResults
	if err := json.Unmarshal(buf, &results); err != nil {
		return nil, fmt.Errorf("aria: %w", err)
	}
	if len(results.Checks) == 0 {
		return nil, fmt.Errorf("aria: no checks executed")
	}

	var passed, failed []ariaCheck
	for _, c := range results.Checks {
		if c.Passed {
			passed = append(passed, c)
		} else {
			failed = append(failed, c)
		}
	}

	exec := ExecutionMeta{
		ToolName:   raw.ToolName,
		Method:     "automated",
		Scope:      "page",
		DurationMs: raw.ExecutionTimeMs,
		Timestamp:  time.Now().UTC(),
	}

	complexity := clamp01(float64(len(results.Checks)) / 15.0)

	if len(failed) > 0 {
		violations := make([]Violation, 0, len(failed))
		for _, c := range failed {
			violations = append(violations, Violation{
				RuleID:       c.Name,
				Impact:       "serious",
				Help:         c.Message,
				WCAGCriteria: []string{criterion},
				Elements: []Element{{
					Selector: c.Selector,
					HTML:     truncateHTML(c.Snippet),
					Fix:      c.Message,
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
				ComplexityScore:   complexity,
				FalsePositiveRisk: 0.05,
			},
		}
		ev.Strength = strengthFor(ev.ConfidenceLevel)
		return ev, nil
	}

	rules := make([]string, 0, len(passed))
	elements := make([]Element, 0, len(passed))
	for _, c := range passed {
		rules = append(rules, c.Name)
		elements = append(elements, Element{
			Selector: c.Selector,
			HTML:     truncateHTML(c.Snippet),
		})
	}
	ev := &Evidence{
		Type:            TypeAutomatedPass,
		ToolResult:      ToolResultPass,
		ConfidenceLevel: ConfidenceHigh,
		Execution:       exec,
		Pass: &PassEvidence{
			RulesPassed:    rules,
			ElementsTested: elements,
			Notes:          fmt.Sprintf("all %d aria checks passed for criterion %s", len(passed), criterion),
		},
		Review: ReviewIndicators{
			ComplexityScore:   complexity,
			FalsePositiveRisk: 0.05,
		},
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev, nil
}
