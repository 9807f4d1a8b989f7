package policy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConditionEvaluator decides whether two condition sets can select the same
// employees, and whether a condition set matches a concrete fact set during
// execution.
//
// Overlap detection is a heuristic, not interval arithmetic: where the answer
// is uncertain it reports overlap, because a missed conflict costs real money
// on a payslip while a false alarm only costs the author a review.
type ConditionEvaluator struct{}

func NewConditionEvaluator() ConditionEvaluator {
	return ConditionEvaluator{}
}

// Overlaps compares two condition sets field by field.
func (ConditionEvaluator) Overlaps(a, b []Condition) OverlapResult {
	if len(a) == 0 || len(b) == 0 {
		return OverlapResult{
			Overlaps: true,
			Reason:   "one policy is unconditional and applies to every employee",
		}
	}

	byField := make(map[string][]Condition, len(a))
	for _, c := range a {
		byField[c.Field] = append(byField[c.Field], c)
	}

	common := false
	for _, cb := range b {
		conditionsA, ok := byField[cb.Field]
		if !ok {
			continue
		}
		common = true
		for _, ca := range conditionsA {
			if r := compareConditionPair(ca, cb); r.Overlaps {
				return r
			}
		}
	}

	if !common {
		return OverlapResult{Overlaps: false, Reason: "no common condition fields"}
	}
	return OverlapResult{Overlaps: false, Reason: "conditions on common fields cannot both hold"}
}

// compareConditionPair decides overlap for two conditions on the same field.
func compareConditionPair(a, b Condition) OverlapResult {
	switch {
	case a.Operator == OperatorGreaterThan && b.Operator == OperatorGreaterThan,
		a.Operator == OperatorLessThan && b.Operator == OperatorLessThan:
		// Same-direction ranges may intersect; exact bound comparison is not
		// attempted, so report overlap regardless of the thresholds.
		return OverlapResult{
			Overlaps: true,
			Reason:   fmt.Sprintf("both policies constrain %q with %q and the ranges can intersect", a.Field, a.Operator),
		}
	case a.Operator == OperatorEquals && b.Operator == OperatorEquals:
		if a.Value.Equal(b.Value) {
			return OverlapResult{
				Overlaps: true,
				Reason:   fmt.Sprintf("both policies require %s == %s", a.Field, a.Value),
			}
		}
		return OverlapResult{Overlaps: false}
	default:
		// Mixed operators: fail open toward flagging.
		return OverlapResult{
			Overlaps: true,
			Reason:   fmt.Sprintf("policies constrain %q with operators %q and %q which may both hold", a.Field, a.Operator, b.Operator),
		}
	}
}

// Matches evaluates a condition set against measured employee facts during
// execution. A condition on a fact the context does not carry fails closed:
// the policy does not fire.
func (ConditionEvaluator) Matches(conditions []Condition, facts map[string]decimal.Decimal) bool {
	for _, c := range conditions {
		value, ok := facts[c.Field]
		if !ok {
			return false
		}
		switch c.Operator {
		case OperatorEquals:
			if !value.Equal(c.Value) {
				return false
			}
		case OperatorGreaterThan:
			if !value.GreaterThan(c.Value) {
				return false
			}
		case OperatorLessThan:
			if !value.LessThan(c.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
