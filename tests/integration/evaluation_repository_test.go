package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"driftwatch/internal/evaluation"
	"driftwatch/internal/management"
	"driftwatch/pkg/models"
)

func TestEvaluationRepository_GetActiveRules_OnlyEnabled(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	ctx := context.Background()
	mgmtRepo := management.NewRepository(infra.PostgresDB)
	repo := evaluation.NewRepository(infra.PostgresDB)

	enabled := createTestTriggerRule("enabled_rule", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 10, true)
	disabled := createTestTriggerRule("disabled_rule", "drift_score", models.OperatorGreaterThan, models.NumberValue(0.3), 20, false)

	require.NoError(t, mgmtRepo.CreateTriggerRule(ctx, enabled))
	require.NoError(t, mgmtRepo.CreateTriggerRule(ctx, disabled))

	rules, err := repo.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "enabled_rule", rules[0].Name)
	assert.True(t, rules[0].Enabled)
}

func TestEvaluationRepository_GetActiveRules_PriorityOrder(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	ctx := context.Background()
	mgmtRepo := management.NewRepository(infra.PostgresDB)
	repo := evaluation.NewRepository(infra.PostgresDB)

	rules := []*models.TriggerRule{
		createTestTriggerRule("low", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 5, true),
		createTestTriggerRule("high", "drift_score", models.OperatorGreaterThan, models.NumberValue(0.3), 20, true),
		createTestTriggerRule("mid", "error_rate", models.OperatorGreaterThanOrEqual, models.NumberValue(0.05), 10, true),
	}
	for _, rule := range rules {
		require.NoError(t, mgmtRepo.CreateTriggerRule(ctx, rule))
		time.Sleep(timestampDelay)
	}

	active, err := repo.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "high", active[0].Name)
	assert.Equal(t, "mid", active[1].Name)
	assert.Equal(t, "low", active[2].Name)
}

func TestEvaluationRepository_GetActiveRules_ThresholdKinds(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	ctx := context.Background()
	mgmtRepo := management.NewRepository(infra.PostgresDB)
	repo := evaluation.NewRepository(infra.PostgresDB)

	numberRule := createTestTriggerRule("accuracy_drop", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 10, true)
	boolRule := createTestTriggerRule("pipeline_degraded", "pipeline_healthy", models.OperatorEqual, models.BoolValue(false), 5, true)

	require.NoError(t, mgmtRepo.CreateTriggerRule(ctx, numberRule))
	require.NoError(t, mgmtRepo.CreateTriggerRule(ctx, boolRule))

	active, err := repo.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)

	byName := make(map[string]models.TriggerRule, len(active))
	for _, rule := range active {
		byName[rule.Name] = rule
	}

	assert.Equal(t, models.NumberValue(0.9), byName["accuracy_drop"].Threshold)
	assert.Equal(t, models.BoolValue(false), byName["pipeline_degraded"].Threshold)
}

func TestEvaluationRepository_GetActiveRules_Empty(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false, false)

	repo := evaluation.NewRepository(infra.PostgresDB)

	rules, err := repo.GetActiveRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)
}
