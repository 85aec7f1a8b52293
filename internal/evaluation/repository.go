package evaluation

import (
	"context"
	"database/sql"
	"fmt"

	"driftwatch/pkg/models"
)

type Repository interface {
	GetActiveRules(ctx context.Context) ([]models.TriggerRule, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetActiveRules(ctx context.Context) ([]models.TriggerRule, error) {
	query := `
		SELECT id, name, signal, operator, threshold_kind, threshold_number, threshold_bool,
		       cooldown_seconds, priority, enabled, created_at, updated_at
		FROM trigger_rules
		WHERE enabled = true
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []models.TriggerRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rules, nil
}

func scanRule(rows *sql.Rows) (models.TriggerRule, error) {
	var (
		rule            models.TriggerRule
		thresholdKind   string
		thresholdNumber sql.NullFloat64
		thresholdBool   sql.NullBool
	)

	if err := rows.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Signal,
		&rule.Operator,
		&thresholdKind,
		&thresholdNumber,
		&thresholdBool,
		&rule.CooldownSeconds,
		&rule.Priority,
		&rule.Enabled,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return models.TriggerRule{}, fmt.Errorf("failed to scan rule: %w", err)
	}

	switch models.ValueKind(thresholdKind) {
	case models.ValueKindNumber:
		rule.Threshold = models.NumberValue(thresholdNumber.Float64)
	case models.ValueKindBool:
		rule.Threshold = models.BoolValue(thresholdBool.Bool)
	default:
		return models.TriggerRule{}, fmt.Errorf("rule %s has unknown threshold kind %q", rule.ID, thresholdKind)
	}

	return rule, nil
}
