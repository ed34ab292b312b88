package evidence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// axeSchema describes the subset of axe-core output the extractor relies on.
const axeSchema = `{
	"type": "object",
	"properties": {
		"violations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string"},
					"impact": {"type": ["string", "null"]},
					"help": {"type": "string"},
					"helpUrl": {"type": "string"},
					"tags": {"type": "array", "items": {"type": "string"}},
					"nodes": {"type": "array"}
				}
			}
		},
		"passes": {"type": "array"}
	},
	"required": ["violations"]
}`

type axeResults struct {
	Violations []axeRule `json:"violations"`
	Passes     []axeRule `json:"passes"`
}

type axeRule struct {
	ID      string    `json:"id"`
	Impact  string    `json:"impact"`
	Help    string    `json:"help"`
	HelpURL string    `json:"helpUrl"`
	Tags    []string  `json:"tags"`
	Nodes   []axeNode `json:"nodes"`
}

type axeNode struct {
	HTML           string   `json:"html"`
	Target         []string `json:"target"`
	FailureSummary string   `json:"failureSummary"`
}

// AxeExtractor normalizes axe-core results. Axe does static DOM analysis,
// so a reported violation is near-certain; a clean run only means no rule
// fired, which leaves coverage gaps and caps pass confidence at medium.
type AxeExtractor struct {
	schema *jsonschema.Schema
}

func NewAxeExtractor() *AxeExtractor {
	return &AxeExtractor{schema: mustCompileSchema("axe.json", axeSchema)}
}

func (e *AxeExtractor) Name() string { return "axe" }

func (e *AxeExtractor) Matches(toolName string) bool {
	return toolName == "axe" || toolName == "axecore"
}

func (e *AxeExtractor) Extract(raw *RawResult, criterion string) (*Evidence, error) {
	doc, err := validatePayload(e.schema, raw.RawResults)
	if err != nil {
		return nil, fmt.Errorf("axe: %w", err)
	}

	buf, _ := json.Marshal(doc)
	var results axeResults
	if err := json.Unmarshal(buf, &results); err != nil {
		return nil, fmt.Errorf("axe: %w", err)
	}

	exec := ExecutionMeta{
		ToolName:   raw.ToolName,
		Method:     "automated",
		Scope:      "page",
		DurationMs: raw.ExecutionTimeMs,
		Timestamp:  time.Now().UTC(),
	}

	if len(results.Violations) == 0 {
		return e.extractPass(results, criterion, exec), nil
	}
	return e.extractFail(results, criterion, exec), nil
}

func (e *AxeExtractor) extractPass(results axeResults, criterion string, exec ExecutionMeta) *Evidence {
	rules := make([]string, 0, len(results.Passes))
	elements := make([]Element, 0)
	for _, p := range results.Passes {
		rules = append(rules, p.ID)
		for _, n := range p.Nodes {
			elements = append(elements, Element{
				Selector: firstTarget(n.Target),
				HTML:     truncateHTML(n.HTML),
			})
		}
	}

	// A clean axe run with zero executed pass rules proves nothing about
	// the criterion, so it must be verified by a human.
	review := ReviewIndicators{
		ComplexityScore:   clamp01(float64(len(rules)) / 20.0),
		FalsePositiveRisk: 0.1,
	}
	if len(rules) == 0 {
		review.RequiresHumanReview = true
		review.ReviewReason = "axe reported no violations but executed no pass checks"
	}

	ev := &Evidence{
		Type:            TypeAutomatedPass,
		ToolResult:      ToolResultPass,
		ConfidenceLevel: ConfidenceMedium,
		Execution:       exec,
		Pass: &PassEvidence{
			RulesPassed:    rules,
			ElementsTested: elements,
			Notes:          fmt.Sprintf("axe found no violations relevant to criterion %s", criterion),
		},
		Review: review,
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

func (e *AxeExtractor) extractFail(results axeResults, criterion string, exec ExecutionMeta) *Evidence {
	violations := make([]Violation, 0, len(results.Violations))
	minorOnly := true
	elementCount := 0
	for _, v := range results.Violations {
		if v.Impact == "serious" || v.Impact == "critical" {
			minorOnly = false
		}
		elems := make([]Element, 0, len(v.Nodes))
		for _, n := range v.Nodes {
			elementCount++
			elems = append(elems, Element{
				Selector: firstTarget(n.Target),
				HTML:     truncateHTML(n.HTML),
				Fix:      n.FailureSummary,
			})
		}
		violations = append(violations, Violation{
			RuleID:       v.ID,
			Impact:       v.Impact,
			Help:         v.Help,
			HelpURL:      v.HelpURL,
			WCAGCriteria: wcagTags(v.Tags, criterion),
			Elements:     elems,
		})
	}

	// Violations from static DOM analysis are trustworthy on their own;
	// minor-impact-only findings are where axe historically over-reports.
	review := ReviewIndicators{
		ComplexityScore:   clamp01(float64(elementCount) / 25.0),
		FalsePositiveRisk: 0.1,
	}
	if minorOnly {
		review.RequiresHumanReview = true
		review.ReviewReason = "axe reported only minor or moderate impact violations"
		review.FalsePositiveRisk = 0.4
	}

	ev := &Evidence{
		Type:            TypeAutomatedFail,
		ToolResult:      ToolResultFail,
		ConfidenceLevel: ConfidenceHigh,
		Execution:       exec,
		Fail:            &FailEvidence{Violations: violations},
		Review:          review,
	}
	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

func firstTarget(targets []string) string {
	if len(targets) == 0 {
		return ""
	}
	return targets[0]
}

// wcagTags filters axe tags down to WCAG criterion identifiers
// ("wcag143" → "1.4.3"). Falls back to the target criterion when
// the rule carries no wcag tags.
func wcagTags(tags []string, criterion string) []string {
	var out []string
	for _, t := range tags {
		if !strings.HasPrefix(t, "wcag") {
			continue
		}
		digits := t[len("wcag"):]
		if c := criterionFromDigits(digits); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = []string{criterion}
	}
	return out
}

// criterionFromDigits converts axe tag digits to dotted form: "143" → "1.4.3",
// "1410" → "1.4.10". Tags with non-digits or fewer than three digits are not
// criterion tags (e.g. "wcag2a") and are skipped.
func criterionFromDigits(digits string) string {
	if len(digits) < 3 || len(digits) > 4 {
		return ""
	}
	for _, d := range digits {
		if d < '0' || d > '9' {
			return ""
		}
	}
	return digits[:1] + "." + digits[1:2] + "." + digits[2:]
}
