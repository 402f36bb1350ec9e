package pipeline

import (
	"launchpad/internal/pipeline/models"
)

// EvaluateRule decides whether a startup's snapshot satisfies a rule.
// This is pure domain logic - no I/O, no side effects.
//
// A rule carries one or more comparison operators; it passes if any of them
// passes (logical OR). A rule whose key is absent from the snapshot, whose
// field type is unknown, or whose values cannot be interpreted for its field
// type evaluates false rather than erroring (fail-closed).
func EvaluateRule(rule *models.Rule, snapshot models.Snapshot) bool {
	value, ok := snapshot[rule.Key]
	if !ok {
		return false
	}
	for _, comparison := range rule.Comparisons {
		if evaluateComparison(rule, comparison, value) {
			return true
		}
	}
	return false
}

func evaluateComparison(rule *models.Rule, comparison models.Comparison, value models.Value) bool {
	switch rule.FieldType {
	case models.FieldTypeMultipleSelect, models.FieldTypeSingleSelect:
		// Order operators are not defined for enumerations. They evaluate
		// false instead of erroring; rule creation rejects them up front.
		if comparison != models.ComparisonEqual {
			return false
		}
		return selectIntersects(rule, value)
	case models.FieldTypeDatepicker:
		return compareInstants(comparison, value, rule.Rule)
	case models.FieldTypeNumericInput:
		return compareNumbers(comparison, value, rule.Rule)
	default:
		return false
	}
}

// selectIntersects passes when the snapshot value (scalar or list)
// intersects the option values the rule's target references.
func selectIntersects(rule *models.Rule, value models.Value) bool {
	targets := optionValues(rule)
	if len(targets) == 0 {
		return false
	}
	for _, candidate := range value.Strings() {
		if targets[candidate] {
			return true
		}
	}
	return false
}

// optionValues resolves the rule's target value against its options
// enumeration, matching by option value first and label second.
func optionValues(rule *models.Rule) map[string]bool {
	targets := make(map[string]bool, 1)
	for _, opt := range rule.Options {
		if opt.Value == rule.Rule || opt.Label == rule.Rule {
			targets[opt.Value] = true
		}
	}
	return targets
}

// compareInstants compares chronologically; equality is exact to the
// instant, so any time-of-day offset fails an equal rule on a bare date.
func compareInstants(comparison models.Comparison, value models.Value, ruleValue string) bool {
	snapshotTime, ok := value.Instant()
	if !ok {
		return false
	}
	ruleTime, ok := models.ParseInstant(ruleValue)
	if !ok {
		return false
	}
	switch comparison {
	case models.ComparisonEqual:
		return snapshotTime.Equal(ruleTime)
	case models.ComparisonGreaterThan:
		return snapshotTime.After(ruleTime)
	case models.ComparisonLessThan:
		return snapshotTime.Before(ruleTime)
	default:
		return false
	}
}

func compareNumbers(comparison models.Comparison, value models.Value, ruleValue string) bool {
	snapshotNum, ok := value.Number()
	if !ok {
		return false
	}
	ruleNum, ok := models.StringValue(ruleValue).Number()
	if !ok {
		return false
	}
	switch comparison {
	case models.ComparisonEqual:
		return snapshotNum == ruleNum
	case models.ComparisonGreaterThan:
		return snapshotNum > ruleNum
	case models.ComparisonLessThan:
		return snapshotNum < ruleNum
	default:
		return false
	}
}
