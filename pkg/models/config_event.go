package models

import "time"

type ConfigUpdateEvent struct {
	EventType   string                 `json:"event_type"`   // "trigger_rule_updated", "intake_config_updated"
	ServiceType string                 `json:"service_type"` // "evaluation", "intake"
	RuleID      string                 `json:"rule_id,omitempty"`
	Action      string                 `json:"action"` // "create", "update", "delete", "toggle"
	Timestamp   time.Time              `json:"timestamp"`
	ChangedBy   string                 `json:"changed_by,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ConfigEventEnvelope frames a ConfigUpdateEvent for the broker config
// topic.
type ConfigEventEnvelope struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Event     ConfigUpdateEvent `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  Metadata          `json:"metadata"`
}

const (
	EventTypeTriggerRuleUpdated  = "trigger_rule_updated"
	EventTypeIntakeConfigUpdated = "intake_config_updated"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionToggle = "toggle"
	ActionReload = "reload"
)

const (
	ServiceTypeEvaluation = "evaluation"
	ServiceTypeIntake     = "intake"
)
