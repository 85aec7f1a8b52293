package evaluation

import (
	"fmt"
	"math"

	"driftwatch/internal/constants"
	pkgerrors "driftwatch/pkg/errors"
	"driftwatch/pkg/models"
)

// matches reports whether the observed value satisfies the rule
// predicate. A threshold/signal kind mismatch, or an ordering operator
// on a boolean, is a rule configuration error and is never swallowed.
func matches(rule models.TriggerRule, observed models.Value) (bool, error) {
	threshold := rule.Threshold

	if observed.Kind != threshold.Kind {
		return false, ruleConfigError(rule,
			fmt.Sprintf("threshold kind '%s' does not match signal kind '%s'", threshold.Kind, observed.Kind))
	}

	switch threshold.Kind {
	case models.ValueKindBool:
		if rule.Operator != models.OperatorEqual {
			return false, ruleConfigError(rule,
				fmt.Sprintf("operator '%s' is not applicable to boolean signals", rule.Operator))
		}
		return observed.Bool == threshold.Bool, nil

	case models.ValueKindNumber:
		switch rule.Operator {
		case models.OperatorGreaterThan:
			return observed.Number > threshold.Number, nil
		case models.OperatorLessThan:
			return observed.Number < threshold.Number, nil
		case models.OperatorGreaterThanOrEqual:
			return observed.Number >= threshold.Number, nil
		case models.OperatorLessThanOrEqual:
			return observed.Number <= threshold.Number, nil
		case models.OperatorEqual:
			return math.Abs(observed.Number-threshold.Number) <= constants.NumericEqualityEpsilon, nil
		default:
			return false, ruleConfigError(rule,
				fmt.Sprintf("unknown operator '%s'", rule.Operator))
		}

	default:
		return false, ruleConfigError(rule,
			fmt.Sprintf("unknown threshold kind '%s'", threshold.Kind))
	}
}

func ruleConfigError(rule models.TriggerRule, message string) error {
	return pkgerrors.ErrValidation.
		WithDetail("message", fmt.Sprintf("rule '%s' (%s): %s", rule.Name, rule.ID, message)).
		WithDetail("rule_id", rule.ID).
		AsFatal()
}
