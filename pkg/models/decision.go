package models

import "time"

const (
	SkipReasonMissingSignal  = "missing_signal"
	SkipReasonCooldownActive = "cooldown_active"
)

// TriggerDecision is the immutable output of one evaluation run.
type TriggerDecision struct {
	ID            string        `json:"id" bson:"_id"`
	Scope         string        `json:"scope" bson:"scope"`
	ShouldTrigger bool          `json:"should_trigger" bson:"should_trigger"`
	FiredRules    []FiredRule   `json:"fired_rules" bson:"fired_rules"`
	SkippedRules  []SkippedRule `json:"skipped_rules" bson:"skipped_rules"`
	Rationale     string        `json:"rationale" bson:"rationale"`
	EvaluatedAt   time.Time     `json:"evaluated_at" bson:"evaluated_at"`
}

type FiredRule struct {
	RuleID    string   `json:"rule_id" bson:"rule_id"`
	RuleName  string   `json:"rule_name" bson:"rule_name"`
	Signal    string   `json:"signal" bson:"signal"`
	Operator  Operator `json:"operator" bson:"operator"`
	Threshold Value    `json:"threshold" bson:"threshold"`
	Observed  Value    `json:"observed" bson:"observed"`
	Priority  int      `json:"priority" bson:"priority"`
}

type SkippedRule struct {
	RuleID   string `json:"rule_id" bson:"rule_id"`
	RuleName string `json:"rule_name" bson:"rule_name"`
	Signal   string `json:"signal" bson:"signal"`
	Reason   string `json:"reason" bson:"reason"`
}
