package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "driftwatch/pkg/errors"
	"driftwatch/pkg/models"
)

func numberRule(op models.Operator, threshold float64) models.TriggerRule {
	return models.TriggerRule{
		ID:        "rule-1",
		Name:      "drift-high",
		Signal:    "drift_score",
		Operator:  op,
		Threshold: models.NumberValue(threshold),
		Enabled:   true,
	}
}

func TestMatchesNumericOperators(t *testing.T) {
	tests := []struct {
		name     string
		operator models.Operator
		observed float64
		want     bool
	}{
		{"gt above", models.OperatorGreaterThan, 0.5, true},
		{"gt equal", models.OperatorGreaterThan, 0.3, false},
		{"gt below", models.OperatorGreaterThan, 0.1, false},
		{"lt below", models.OperatorLessThan, 0.1, true},
		{"lt equal", models.OperatorLessThan, 0.3, false},
		{"gte equal", models.OperatorGreaterThanOrEqual, 0.3, true},
		{"gte below", models.OperatorGreaterThanOrEqual, 0.29, false},
		{"lte equal", models.OperatorLessThanOrEqual, 0.3, true},
		{"lte above", models.OperatorLessThanOrEqual, 0.31, false},
		{"eq exact", models.OperatorEqual, 0.3, true},
		{"eq off", models.OperatorEqual, 0.30001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matches(numberRule(tt.operator, 0.3), models.NumberValue(tt.observed))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchesNumericEqualityEpsilon(t *testing.T) {
	got, err := matches(numberRule(models.OperatorEqual, 0.3), models.NumberValue(0.1+0.2))
	assert.NoError(t, err)
	assert.True(t, got, "eq should tolerate float rounding")
}

func TestMatchesBooleanEquality(t *testing.T) {
	rule := models.TriggerRule{
		ID:        "rule-2",
		Name:      "freshness-stale",
		Signal:    "data_fresh",
		Operator:  models.OperatorEqual,
		Threshold: models.BoolValue(false),
		Enabled:   true,
	}

	got, err := matches(rule, models.BoolValue(false))
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = matches(rule, models.BoolValue(true))
	assert.NoError(t, err)
	assert.False(t, got)
}

func TestMatchesKindMismatchIsError(t *testing.T) {
	_, err := matches(numberRule(models.OperatorGreaterThan, 0.3), models.BoolValue(true))
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestMatchesOrderingOperatorOnBoolIsError(t *testing.T) {
	rule := models.TriggerRule{
		ID:        "rule-3",
		Name:      "bad-rule",
		Signal:    "data_fresh",
		Operator:  models.OperatorGreaterThan,
		Threshold: models.BoolValue(true),
		Enabled:   true,
	}

	_, err := matches(rule, models.BoolValue(true))
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}
