package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"driftwatch/internal/management"
	"driftwatch/pkg/models"
)

func TestManagementRepository_CreateTriggerRule(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := management.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestTriggerRule("test_rule", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 10, true)

	err := repo.CreateTriggerRule(ctx, rule)
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	assert.False(t, rule.UpdatedAt.IsZero())
}

func TestManagementRepository_GetTriggerRule(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := management.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestTriggerRule("test_rule", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 10, true)
	err := repo.CreateTriggerRule(ctx, rule)
	require.NoError(t, err)

	retrieved, err := repo.GetTriggerRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, rule.ID, retrieved.ID)
	assert.Equal(t, rule.Name, retrieved.Name)
	assert.Equal(t, rule.Signal, retrieved.Signal)
	assert.Equal(t, rule.Operator, retrieved.Operator)
	assert.Equal(t, rule.Threshold, retrieved.Threshold)
	assert.Equal(t, rule.Priority, retrieved.Priority)
	assert.Equal(t, rule.Enabled, retrieved.Enabled)
}

func TestManagementRepository_GetTriggerRule_BoolThreshold(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := management.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestTriggerRule("pipeline_degraded", "pipeline_healthy", models.OperatorEqual, models.BoolValue(false), 10, true)
	err := repo.CreateTriggerRule(ctx, rule)
	require.NoError(t, err)

	retrieved, err := repo.GetTriggerRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ValueKindBool, retrieved.Threshold.Kind)
	assert.False(t, retrieved.Threshold.Bool)
}

func TestManagementRepository_GetTriggerRule_NotFound(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := management.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	_, err := repo.GetTriggerRule(ctx, "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestManagementRepository_ListTriggerRules(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := management.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	rules := []*models.TriggerRule{
		createTestTriggerRule("rule1", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 10, true),
		createTestTriggerRule("rule2", "drift_score", models.OperatorGreaterThan, models.NumberValue(0.3), 20, true),
		createTestTriggerRule("rule3", "error_rate", models.OperatorGreaterThanOrEqual, models.NumberValue(0.05), 5, false),
	}

	for _, rule := range rules {
		err := repo.CreateTriggerRule(ctx, rule)
		require.NoError(t, err)
		time.Sleep(timestampDelay)
	}

	list, err := repo.ListTriggerRules(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	assert.Equal(t, "rule2", list[0].Name) // Priority 20
	assert.Equal(t, "rule1", list[1].Name) // Priority 10
	assert.Equal(t, "rule3", list[2].Name) // Priority 5
}

func TestManagementRepository_UpdateTriggerRule(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := management.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestTriggerRule("test_rule", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 10, true)
	err := repo.CreateTriggerRule(ctx, rule)
	require.NoError(t, err)

	originalUpdatedAt := rule.UpdatedAt

	time.Sleep(timestampDelay)
	rule.Name = "updated_rule"
	rule.Operator = models.OperatorLessThanOrEqual
	rule.Threshold = models.NumberValue(0.85)
	rule.CooldownSeconds = 600
	rule.Priority = 15
	rule.Enabled = false

	err = repo.UpdateTriggerRule(ctx, rule)
	require.NoError(t, err)

	retrieved, err := repo.GetTriggerRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated_rule", retrieved.Name)
	assert.Equal(t, models.OperatorLessThanOrEqual, retrieved.Operator)
	assert.Equal(t, models.NumberValue(0.85), retrieved.Threshold)
	assert.Equal(t, int64(600), retrieved.CooldownSeconds)
	assert.Equal(t, 15, retrieved.Priority)
	assert.False(t, retrieved.Enabled)
	assert.True(t, retrieved.UpdatedAt.After(originalUpdatedAt))
}

func TestManagementRepository_DeleteTriggerRule(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := management.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	rule := createTestTriggerRule("test_rule", "accuracy", models.OperatorLessThan, models.NumberValue(0.9), 10, true)
	err := repo.CreateTriggerRule(ctx, rule)
	require.NoError(t, err)
	err = repo.DeleteTriggerRule(ctx, rule.ID)
	require.NoError(t, err)

	_, err = repo.GetTriggerRule(ctx, rule.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
