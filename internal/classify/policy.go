package classify

// Criterion policy tables. These encode review policy for the compliance
// program, not tool behavior: extractors decide what a scanner's output is
// worth, these lists decide what the organization insists a human looks at.

// alwaysReviewCriteria always require human review regardless of tool
// confidence: criteria with legal or financial exposure, plus criteria
// where automated checks are historically prone to false positives
// (contrast and focus-visibility checks against rendered pages).
var alwaysReviewCriteria = map[string]bool{
	// Error prevention for legal, financial and user data (WCAG 3.3.4/3.3.6).
	"3.3.4": true,
	"3.3.6": true,
	// Input purpose identification touches autofill of personal data.
	"1.3.5": true,
	// Timeouts risk silent loss of user data.
	"2.2.6": true,
	// Contrast checks misfire on gradients, overlays and images of text.
	"1.4.3":  true,
	"1.4.11": true,
	// Focus visibility depends on rendered state automated runs often miss.
	"2.4.7": true,
}

// criticalCriteria force high priority in the review queue.
var criticalCriteria = map[string]bool{
	"3.3.4": true,
	"3.3.6": true,
	"1.3.5": true,
	"2.2.6": true,
}

// categoryByCriterion routes queue items to the right reviewer group.
var categoryByCriterion = map[string]Category{
	"3.3.4": CategoryFinancialData,
	"3.3.6": CategoryFinancialData,
	"1.3.5": CategoryLegalCompliance,
	"2.2.6": CategoryLegalCompliance,

	// Criteria whose failure makes content unreachable outright.
	"1.1.1": CategoryAccessibilityCritical,
	"1.3.1": CategoryAccessibilityCritical,
	"2.1.1": CategoryAccessibilityCritical,
	"4.1.2": CategoryAccessibilityCritical,
}
