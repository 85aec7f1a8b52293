package management

import (
	"context"

	"driftwatch/pkg/models"
)

type Service interface {
	CreateTriggerRule(ctx context.Context, req CreateTriggerRuleRequest) (*models.TriggerRule, error)
	ListTriggerRules(ctx context.Context) ([]models.TriggerRule, error)
	GetTriggerRule(ctx context.Context, id string) (*models.TriggerRule, error)
	UpdateTriggerRule(ctx context.Context, id string, req UpdateTriggerRuleRequest) (*models.TriggerRule, error)
	DeleteTriggerRule(ctx context.Context, id string) error
	GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error)
	GetAuditLogs(ctx context.Context, ruleID *string, ruleType string, limit int) ([]AuditLog, error)

	ListDecisions(ctx context.Context, filter DecisionHistoryFilter) ([]models.TriggerDecision, error)
	GetDecision(ctx context.Context, id string) (*models.TriggerDecision, error)

	GetIntakeConfig(ctx context.Context) (*IntakeConfig, error)
	UpdateIntakeConfig(ctx context.Context, req UpdateIntakeConfigRequest) (*IntakeConfig, error)
}
