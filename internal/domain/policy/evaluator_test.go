package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func cond(field string, op Operator, value float64) Condition {
	return Condition{Field: field, Operator: op, Value: decimal.NewFromFloat(value)}
}

func TestConditionEvaluator_Overlaps(t *testing.T) {
	eval := NewConditionEvaluator()

	tests := []struct {
		name     string
		a        []Condition
		b        []Condition
		overlaps bool
	}{
		{
			name:     "empty side is unconditional and overlaps everything",
			a:        nil,
			b:        []Condition{cond("lateCount", OperatorGreaterThan, 3)},
			overlaps: true,
		},
		{
			name:     "both empty overlap",
			a:        nil,
			b:        nil,
			overlaps: true,
		},
		{
			name:     "no common fields",
			a:        []Condition{cond("lateCount", OperatorGreaterThan, 3)},
			b:        []Condition{cond("absenceDays", OperatorGreaterThan, 1)},
			overlaps: false,
		},
		{
			name:     "same direction greater than overlaps regardless of bounds",
			a:        []Condition{cond("lateCount", OperatorGreaterThan, 3)},
			b:        []Condition{cond("lateCount", OperatorGreaterThan, 5)},
			overlaps: true,
		},
		{
			name:     "same direction less than overlaps",
			a:        []Condition{cond("rating", OperatorLessThan, 2)},
			b:        []Condition{cond("rating", OperatorLessThan, 3)},
			overlaps: true,
		},
		{
			name:     "equal equals values overlap",
			a:        []Condition{cond("tenureYears", OperatorEquals, 5)},
			b:        []Condition{cond("tenureYears", OperatorEquals, 5)},
			overlaps: true,
		},
		{
			name:     "different equals values do not overlap",
			a:        []Condition{cond("tenureYears", OperatorEquals, 5)},
			b:        []Condition{cond("tenureYears", OperatorEquals, 10)},
			overlaps: false,
		},
		{
			name:     "mixed operators fail open",
			a:        []Condition{cond("lateCount", OperatorGreaterThan, 3)},
			b:        []Condition{cond("lateCount", OperatorEquals, 4)},
			overlaps: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := eval.Overlaps(tt.a, tt.b)
			assert.Equal(t, tt.overlaps, result.Overlaps)
			assert.NotEmpty(t, result.Reason)

			// Overlap is symmetric.
			assert.Equal(t, tt.overlaps, eval.Overlaps(tt.b, tt.a).Overlaps)
		})
	}
}

func TestConditionEvaluator_Matches(t *testing.T) {
	eval := NewConditionEvaluator()

	facts := map[string]decimal.Decimal{
		"lateCount":   decimal.NewFromInt(4),
		"absenceDays": decimal.NewFromInt(0),
		"tenureYears": decimal.NewFromInt(5),
	}

	t.Run("all conditions hold", func(t *testing.T) {
		assert.True(t, eval.Matches([]Condition{
			cond("lateCount", OperatorGreaterThan, 3),
			cond("absenceDays", OperatorLessThan, 1),
		}, facts))
	})

	t.Run("one condition fails", func(t *testing.T) {
		assert.False(t, eval.Matches([]Condition{
			cond("lateCount", OperatorGreaterThan, 3),
			cond("tenureYears", OperatorEquals, 10),
		}, facts))
	})

	t.Run("missing fact fails closed", func(t *testing.T) {
		assert.False(t, eval.Matches([]Condition{
			cond("overtimeHours", OperatorGreaterThan, 0),
		}, facts))
	})

	t.Run("empty conditions always match", func(t *testing.T) {
		assert.True(t, eval.Matches(nil, facts))
	})

	t.Run("boundary is exclusive for greater than", func(t *testing.T) {
		assert.False(t, eval.Matches([]Condition{
			cond("lateCount", OperatorGreaterThan, 4),
		}, facts))
	})
}
