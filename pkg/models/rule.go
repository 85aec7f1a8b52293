package models

import "time"

type Operator string

const (
	OperatorGreaterThan        Operator = "gt"
	OperatorLessThan           Operator = "lt"
	OperatorGreaterThanOrEqual Operator = "gte"
	OperatorLessThanOrEqual    Operator = "lte"
	OperatorEqual              Operator = "eq"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorGreaterThan, OperatorLessThan, OperatorGreaterThanOrEqual, OperatorLessThanOrEqual, OperatorEqual:
		return true
	default:
		return false
	}
}

// TriggerRule is a threshold predicate over a single signal. A rule
// with a boolean threshold may only use the eq operator.
type TriggerRule struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Signal          string    `json:"signal" db:"signal"`
	Operator        Operator  `json:"operator" db:"operator"`
	Threshold       Value     `json:"threshold"`
	CooldownSeconds int64     `json:"cooldown_seconds" db:"cooldown_seconds"`
	Priority        int       `json:"priority" db:"priority"`
	Enabled         bool      `json:"enabled" db:"enabled"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func (r TriggerRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}
