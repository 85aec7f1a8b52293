package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"driftwatch/internal/evaluation"
	"driftwatch/internal/management"
	"driftwatch/pkg/models"
)

func insertTestDecision(t *testing.T, repo evaluation.DecisionRepository, id, scope string, triggered bool, evaluatedAt time.Time) models.TriggerDecision {
	t.Helper()

	decision := models.TriggerDecision{
		ID:            id,
		Scope:         scope,
		ShouldTrigger: triggered,
		FiredRules:    []models.FiredRule{},
		SkippedRules:  []models.SkippedRule{},
		Rationale:     "no rules fired",
		EvaluatedAt:   evaluatedAt,
	}
	if triggered {
		decision.FiredRules = []models.FiredRule{{
			RuleID:    "rule-1",
			RuleName:  "accuracy_drop",
			Signal:    "accuracy",
			Operator:  models.OperatorLessThan,
			Threshold: models.NumberValue(0.9),
			Observed:  models.NumberValue(0.85),
			Priority:  10,
		}}
		decision.Rationale = "rule accuracy_drop fired"
	}

	require.NoError(t, repo.Insert(context.Background(), decision))
	return decision
}

func TestDecisionHistory_InsertAndGet(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	writer := evaluation.NewDecisionRepository(infra.MongoDB)
	reader := management.NewDecisionHistoryRepository(infra.MongoDB)
	ctx := context.Background()

	evaluatedAt := time.Now().UTC().Truncate(time.Millisecond)
	inserted := insertTestDecision(t, writer, "decision-1", "model-a", true, evaluatedAt)

	decision, err := reader.GetDecision(ctx, "decision-1")
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, inserted.ID, decision.ID)
	assert.Equal(t, inserted.Scope, decision.Scope)
	assert.True(t, decision.ShouldTrigger)
	require.Len(t, decision.FiredRules, 1)
	assert.Equal(t, "accuracy_drop", decision.FiredRules[0].RuleName)
	assert.Equal(t, models.NumberValue(0.85), decision.FiredRules[0].Observed)
	assert.True(t, decision.EvaluatedAt.Equal(evaluatedAt))
}

func TestDecisionHistory_GetDecision_NotFound(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	reader := management.NewDecisionHistoryRepository(infra.MongoDB)

	decision, err := reader.GetDecision(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, decision)
}

func TestDecisionHistory_ListDecisions_ScopeFilter(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	writer := evaluation.NewDecisionRepository(infra.MongoDB)
	reader := management.NewDecisionHistoryRepository(infra.MongoDB)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	insertTestDecision(t, writer, "decision-1", "model-a", false, now)
	insertTestDecision(t, writer, "decision-2", "model-b", false, now)
	insertTestDecision(t, writer, "decision-3", "model-a", true, now)

	decisions, err := reader.ListDecisions(ctx, management.DecisionHistoryFilter{Scope: "model-a", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, decisions, 2)
	for _, d := range decisions {
		assert.Equal(t, "model-a", d.Scope)
	}
}

func TestDecisionHistory_ListDecisions_OnlyTriggered(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	writer := evaluation.NewDecisionRepository(infra.MongoDB)
	reader := management.NewDecisionHistoryRepository(infra.MongoDB)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	insertTestDecision(t, writer, "decision-1", "model-a", false, now)
	insertTestDecision(t, writer, "decision-2", "model-a", true, now)

	decisions, err := reader.ListDecisions(ctx, management.DecisionHistoryFilter{OnlyTriggered: true, Limit: 100})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "decision-2", decisions[0].ID)
}

func TestDecisionHistory_ListDecisions_TimeRangeAndOrder(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	writer := evaluation.NewDecisionRepository(infra.MongoDB)
	reader := management.NewDecisionHistoryRepository(infra.MongoDB)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		insertTestDecision(t, writer, fmt.Sprintf("decision-%d", i), "model-a", false, base.Add(time.Duration(i)*time.Minute))
	}

	since := base.Add(1 * time.Minute)
	until := base.Add(3 * time.Minute)
	decisions, err := reader.ListDecisions(ctx, management.DecisionHistoryFilter{
		Since: &since,
		Until: &until,
		Limit: 100,
	})
	require.NoError(t, err)
	require.Len(t, decisions, 3)

	// Newest first.
	assert.Equal(t, "decision-3", decisions[0].ID)
	assert.Equal(t, "decision-2", decisions[1].ID)
	assert.Equal(t, "decision-1", decisions[2].ID)
}

func TestDecisionHistory_ListDecisions_Limit(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false)

	writer := evaluation.NewDecisionRepository(infra.MongoDB)
	reader := management.NewDecisionHistoryRepository(infra.MongoDB)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		insertTestDecision(t, writer, fmt.Sprintf("decision-%d", i), "model-a", false, base.Add(time.Duration(i)*time.Second))
	}

	decisions, err := reader.ListDecisions(ctx, management.DecisionHistoryFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, decisions, 2)
}
