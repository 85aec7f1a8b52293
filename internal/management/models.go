package management

import (
	"time"

	"driftwatch/pkg/models"
)

// ThresholdPayload is the request-side shape of a rule threshold. Kind
// decides which of Number or Bool must be set.
type ThresholdPayload struct {
	Kind   string   `json:"kind" binding:"required"`
	Number *float64 `json:"number,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
}

func (t ThresholdPayload) ToValue() models.Value {
	switch models.ValueKind(t.Kind) {
	case models.ValueKindBool:
		if t.Bool != nil {
			return models.BoolValue(*t.Bool)
		}
		return models.BoolValue(false)
	default:
		if t.Number != nil {
			return models.NumberValue(*t.Number)
		}
		return models.NumberValue(0)
	}
}

type CreateTriggerRuleRequest struct {
	Name            string           `json:"name" binding:"required"`
	Signal          string           `json:"signal" binding:"required"`
	Operator        string           `json:"operator" binding:"required"`
	Threshold       ThresholdPayload `json:"threshold" binding:"required"`
	CooldownSeconds int64            `json:"cooldown_seconds"`
	Priority        int              `json:"priority"`
	Enabled         *bool            `json:"enabled"`
}

type UpdateTriggerRuleRequest struct {
	Name            *string           `json:"name"`
	Signal          *string           `json:"signal"`
	Operator        *string           `json:"operator"`
	Threshold       *ThresholdPayload `json:"threshold"`
	CooldownSeconds *int64            `json:"cooldown_seconds"`
	Priority        *int              `json:"priority"`
	Enabled         *bool             `json:"enabled"`
}

// DecisionHistoryFilter narrows a decision history query. Zero values
// leave the corresponding dimension unfiltered.
type DecisionHistoryFilter struct {
	Scope         string
	OnlyTriggered bool
	Since         *time.Time
	Until         *time.Time
	Limit         int
}

type IntakeConfig struct {
	HashAlgorithm string   `json:"hash_algorithm"`
	TTLSeconds    int      `json:"ttl_seconds"`
	OnRedisError  string   `json:"on_redis_error"`
	FieldsToHash  []string `json:"fields_to_hash"`
}

type UpdateIntakeConfigRequest struct {
	HashAlgorithm *string   `json:"hash_algorithm,omitempty"`
	TTLSeconds    *int      `json:"ttl_seconds,omitempty"`
	OnRedisError  *string   `json:"on_redis_error,omitempty"`
	FieldsToHash  *[]string `json:"fields_to_hash,omitempty"`
}
