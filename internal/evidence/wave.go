package evidence

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// waveSchema describes the categories block of a WAVE API response.
const waveSchema = `{
	"type": "object",
	"properties": {
		"categories": {
			"type": "object",
			"properties": {
				"error": {"$ref": "#/$defs/category"},
				"contrast": {"$ref": "#/$defs/category"},
				"alert": {"$ref": "#/$defs/category"}
			}
		}
	},
	"required": ["categories"],
	"$defs": {
		"category": {
			"type": "object",
			"properties": {
				"count": {"type": "integer", "minimum": 0},
				"items": {
					"type": "object",
					"additionalProperties": {
						"type": "object",
						"properties": {
							"id": {"type": "string"},
							"description": {"type": "string"},
							"count": {"type": "integer"},
							"selectors": {"type": "array", "items": {"type": "string"}}
						}
					}
				}
			}
		}
	}
}`

type waveResults struct {
	Categories map[string]waveCategory `json:"categories"`
}

type waveCategory struct {
	Count int                 `json:"count"`
	Items map[string]waveItem `json:"items"`
}

type waveItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
	Selectors   []string `json:"selectors"`
}

// WaveExtractor normalizes WAVE API responses. WAVE mixes true rule errors
// with broad heuristics, so both passes and failures sit at medium
// confidence and alert-heavy runs are routed to review.
type WaveExtractor struct {
	schema *jsonschema.Schema
}

func NewWaveExtractor() *WaveExtractor {
	return &WaveExtractor{schema: mustCompileSchema("wave.json", waveSchema)}
}

func (e *WaveExtractor) Name() string { return "wave" }

func (e *WaveExtractor) Matches(toolName string) bool {
	return toolName == "wave"
}

func (e *WaveExtractor) Extract(raw *RawResult, criterion string) (*Evidence, error) {
	doc, err := validatePayload(e.schema, raw.RawResults)
	if err != nil {
		return nil, fmt.Errorf("wave: %w", err)
	}

	buf, _ := json.Marshal(doc)
	var results waveResults
	if err := json.Unmarshal(buf, &results); err != nil {
		return nil, fmt.Errorf("wave: %w", err)
	}

	errors := results.Categories["error"]
	contrast := results.Categories["contrast"]
	alerts := results.Categories["alert"]
	failCount := errors.Count + contrast.Count

	exec := ExecutionMeta{
		ToolName:   raw.ToolName,
		Method:     "automated",
		Scope:      "page",
		DurationMs: raw.ExecutionTimeMs,
		Timestamp:  time.Now().UTC(),
	}

	if failCount > 0 {
		return e.extractFail(errors, contrast, criterion, exec), nil
	}
	return e.extractPass(alerts, criterion, exec), nil
}

func (e *WaveExtractor) extractFail(errors, contrast waveCategory, criterion string, exec ExecutionMeta) *Evidence {
	violations := waveViolations(errors, "serious", criterion)
	violations = append(violations, waveViolations(contrast, "moderate", criterion)...)

	// Contrast findings are computed from rendered colors and routinely
	// misfire on overlapping or decorative elements.
	review := ReviewIndicators{
		ComplexityScore:   clamp01(float64(len(violations)) / 12.0),
		FalsePositiveRisk: 0.3,
	}
	if contrast.Count > 0 {
		review.RequiresHumanReview = true
		review.ReviewReason = "wave contrast findings require visual confirmation"
		review.FalsePositiveRisk = 0.6
	}

	ev := &Evidence{
		Type:            TypeAutomatedFail,
		ToolResult:      ToolResultFail,
		ConfidenceLevel: ConfidenceMedium,
		Execution:       exec,
		Fail:            &FailEvidence{Violations: violations},
		Review:          review,
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

func (e *WaveExtractor) extractPass(alerts waveCategory, criterion string, exec ExecutionMeta) *Evidence {
	review := ReviewIndicators{
		ComplexityScore:   clamp01(float64(alerts.Count) / 20.0),
		FalsePositiveRisk: 0.4,
	}
	if alerts.Count > 0 {
		review.RequiresHumanReview = true
		review.ReviewReason = fmt.Sprintf("wave raised %d alert(s) that are not automatic failures", alerts.Count)
	}

	ev := &Evidence{
		Type:            TypeAutomatedPass,
		ToolResult:      ToolResultPass,
		ConfidenceLevel: ConfidenceMedium,
		Execution:       exec,
		Pass: &PassEvidence{
			RulesPassed:    waveRuleIDs(alerts),
			ElementsTested: []Element{},
			Notes:          fmt.Sprintf("wave reported no errors or contrast failures for criterion %s", criterion),
		},
		Review: review,
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

func waveViolations(cat waveCategory, impact, criterion string) []Violation {
	ids := make([]string, 0, len(cat.Items))
	for id := range cat.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Violation, 0, len(ids))
	for _, id := range ids {
		item := cat.Items[id]
		elems := make([]Element, 0, len(item.Selectors))
		for _, sel := range item.Selectors {
			elems = append(elems, Element{Selector: sel})
		}
		out = append(out, Violation{
			RuleID:       item.ID,
			Impact:       impact,
			Help:         item.Description,
			WCAGCriteria: []string{criterion},
			Elements:     elems,
		})
	}
	return out
}

func waveRuleIDs(cat waveCategory) []string {
	ids := make([]string, 0, len(cat.Items))
	for id := range cat.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
