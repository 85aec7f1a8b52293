package management

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pkgerrors "driftwatch/pkg/errors"
	"driftwatch/pkg/models"
)

type Repository interface {
	CreateTriggerRule(ctx context.Context, rule *models.TriggerRule) error
	ListTriggerRules(ctx context.Context) ([]models.TriggerRule, error)
	GetTriggerRule(ctx context.Context, id string) (*models.TriggerRule, error)
	UpdateTriggerRule(ctx context.Context, rule *models.TriggerRule) error
	DeleteTriggerRule(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func thresholdColumns(threshold models.Value) (string, sql.NullFloat64, sql.NullBool) {
	var number sql.NullFloat64
	var boolean sql.NullBool

	switch threshold.Kind {
	case models.ValueKindBool:
		boolean = sql.NullBool{Bool: threshold.Bool, Valid: true}
	default:
		number = sql.NullFloat64{Float64: threshold.Number, Valid: true}
	}

	return string(threshold.Kind), number, boolean
}

func scanThreshold(kind string, number sql.NullFloat64, boolean sql.NullBool) models.Value {
	switch models.ValueKind(kind) {
	case models.ValueKindBool:
		return models.BoolValue(boolean.Bool)
	default:
		return models.NumberValue(number.Float64)
	}
}

func (r *PostgresRepository) CreateTriggerRule(ctx context.Context, rule *models.TriggerRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	kind, number, boolean := thresholdColumns(rule.Threshold)

	query := `
		INSERT INTO trigger_rules (id, name, signal, operator, threshold_kind, threshold_number, threshold_bool, cooldown_seconds, priority, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.Signal, string(rule.Operator),
		kind, number, boolean,
		rule.CooldownSeconds, rule.Priority, rule.Enabled, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists", rule.Name))
			}
		}
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("rule with name '%s' already exists", rule.Name))
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetTriggerRule(ctx context.Context, id string) (*models.TriggerRule, error) {
	query := `
		SELECT id, name, signal, operator, threshold_kind, threshold_number, threshold_bool, cooldown_seconds, priority, enabled, created_at, updated_at
		FROM trigger_rules
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	rule, err := scanTriggerRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

func (r *PostgresRepository) ListTriggerRules(ctx context.Context) ([]models.TriggerRule, error) {
	query := `
		SELECT id, name, signal, operator, threshold_kind, threshold_number, threshold_bool, cooldown_seconds, priority, enabled, created_at, updated_at
		FROM trigger_rules
		ORDER BY priority DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []models.TriggerRule
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		rule, err := scanTriggerRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	return rules, nil
}

func (r *PostgresRepository) UpdateTriggerRule(ctx context.Context, rule *models.TriggerRule) error {
	rule.UpdatedAt = time.Now()

	kind, number, boolean := thresholdColumns(rule.Threshold)

	query := `
		UPDATE trigger_rules
		SET name = $1, signal = $2, operator = $3, threshold_kind = $4, threshold_number = $5, threshold_bool = $6, cooldown_seconds = $7, priority = $8, enabled = $9, updated_at = $10
		WHERE id = $11
	`

	res, err := r.db.ExecContext(ctx, query,
		rule.Name, rule.Signal, string(rule.Operator),
		kind, number, boolean,
		rule.CooldownSeconds, rule.Priority, rule.Enabled, rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

func (r *PostgresRepository) DeleteTriggerRule(ctx context.Context, id string) error {
	query := `DELETE FROM trigger_rules WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTriggerRule(row rowScanner) (*models.TriggerRule, error) {
	var rule models.TriggerRule
	var operator string
	var kind string
	var number sql.NullFloat64
	var boolean sql.NullBool

	if err := row.Scan(
		&rule.ID, &rule.Name, &rule.Signal, &operator,
		&kind, &number, &boolean,
		&rule.CooldownSeconds, &rule.Priority, &rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rule.Operator = models.Operator(operator)
	rule.Threshold = scanThreshold(kind, number, boolean)

	return &rule, nil
}
