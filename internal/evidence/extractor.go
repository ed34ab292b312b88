package evidence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// Extractor converts one scanner family's raw output into normalized Evidence.
// Implementations must be pure and deterministic: same input, same Evidence.
// A parse failure is reported as an error; the Registry degrades it to the
// generic path rather than surfacing it to callers.
type Extractor interface {
	// Name returns the extractor's unique identifier.
	Name() string

	// Matches reports whether this strategy handles the given tool name.
	Matches(toolName string) bool

	// Extract builds Evidence from the raw result for the target criterion.
	Extract(raw *RawResult, criterion string) (*Evidence, error)
}

// Registry dispatches raw results to the strategy registered for their tool.
// Unknown tools and strategy failures fall back to generic evidence, so
// Extract never fails: every automated result produces an auditable record.
type Registry struct {
	extractors []Extractor
	logger     *zap.Logger
}

// NewRegistry creates a registry with all built-in extractor strategies.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		extractors: []Extractor{
			NewAxeExtractor(),
			NewPa11yExtractor(),
			NewLighthouseExtractor(),
			NewWaveExtractor(),
			NewARIAExtractor(),
		},
		logger: logger,
	}
}

// NewRegistryWith creates a registry with a custom strategy set (for testing).
func NewRegistryWith(logger *zap.Logger, extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors, logger: logger}
}

// Extract normalizes a raw scanner result. Never returns nil and never
// panics: any strategy error (or a panicking strategy fed hostile input)
// degrades to generic evidence with requires_human_review set.
func (r *Registry) Extract(raw *RawResult, criterion string) (ev *Evidence) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("extractor panicked, degrading to generic evidence",
				zap.String("tool_name", toolName(raw)),
				zap.String("criterion", criterion),
				zap.Any("panic", rec),
			)
			ev = Generic(raw, criterion)
		}
	}()

	if raw == nil {
		return Generic(raw, criterion)
	}

	name := normalizeToolName(raw.ToolName)
	for _, ex := range r.extractors {
		if !ex.Matches(name) {
			continue
		}
		extracted, err := ex.Extract(raw, criterion)
		if err != nil {
			r.logger.Warn("evidence extraction failed, degrading to generic evidence",
				zap.String("extractor", ex.Name()),
				zap.String("tool_name", raw.ToolName),
				zap.String("criterion", criterion),
				zap.Error(err),
			)
			return Generic(raw, criterion)
		}
		return extracted
	}

	return Generic(raw, criterion)
}

func toolName(raw *RawResult) string {
	if raw == nil {
		return ""
	}
	return raw.ToolName
}

// normalizeToolName lowercases and strips separators so "axe-core",
// "Axe Core" and "axecore" all dispatch to the same strategy.
func normalizeToolName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, " ", "")
	return name
}

// Generic builds fallback evidence when no strategy is registered for the
// tool or the registered strategy could not parse the payload. The pass/fail
// call is a simple violation-count heuristic, and the result is always
// flagged for human review.
func Generic(raw *RawResult, criterion string) *Evidence {
	count := 0
	name := "unknown"
	var durationMs int64
	if raw != nil {
		if raw.ViolationsCount != nil {
			count = *raw.ViolationsCount
		}
		if raw.ToolName != "" {
			name = raw.ToolName
		}
		durationMs = raw.ExecutionTimeMs
	}

	ev := &Evidence{
		ConfidenceLevel: ConfidenceMedium,
		Execution: ExecutionMeta{
			ToolName:   name,
			Method:     "automated",
			Scope:      "page",
			DurationMs: durationMs,
			Timestamp:  time.Now().UTC(),
		},
		Review: ReviewIndicators{
			RequiresHumanReview: true,
			ReviewReason:        "generic evidence extraction",
			ComplexityScore:     0.5,
			FalsePositiveRisk:   0.5,
		},
	}

	if count == 0 {
		ev.Type = TypeAutomatedPass
		ev.ToolResult = ToolResultPass
		ev.Pass = &PassEvidence{
			RulesPassed:    []string{},
			ElementsTested: []Element{},
			Notes:          fmt.Sprintf("no violations reported by %s for criterion %s", name, criterion),
		}
	} else {
		ev.Type = TypeAutomatedFail
		ev.ToolResult = ToolResultFail
		ev.Fail = &FailEvidence{
			Violations: []Violation{{
				RuleID:       "unstructured_violations",
				Help:         fmt.Sprintf("%d violation(s) reported by %s; raw output was not interpretable", count, name),
				WCAGCriteria: []string{criterion},
				Elements:     []Element{},
			}},
		}
	}

	ev.Strength = strengthFor(ev.ConfidenceLevel)
	return ev
}

// mustCompileSchema compiles an embedded JSON Schema at package init.
// Panics on invalid schema text, which can only be a programming error.
func mustCompileSchema(name, schemaJSON string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add schema resource %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return sch
}

// validatePayload checks raw_results against a strategy's schema and returns
// the decoded document for typed unmarshalling.
func validatePayload(sch *jsonschema.Schema, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty raw_results")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("raw_results is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("raw_results schema validation: %w", err)
	}
	return doc, nil
}
