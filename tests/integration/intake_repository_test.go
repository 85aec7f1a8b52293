package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"driftwatch/internal/constants"
	"driftwatch/internal/intake"
	"driftwatch/pkg/models"
)

func TestIntakeRepository_SetNX(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := intake.NewRepository(infra.RedisClient)
	ctx := context.Background()

	key := constants.CacheKeyPrefixDedup + "abc123"

	first, err := repo.SetNX(ctx, key, "1", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.SetNX(ctx, key, "1", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestIntakeRepository_GetCacheSize(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := intake.NewRepository(infra.RedisClient)
	ctx := context.Background()

	for _, suffix := range []string{"a", "b", "c"} {
		_, err := repo.SetNX(ctx, constants.CacheKeyPrefixDedup+suffix, "1", time.Minute)
		require.NoError(t, err)
	}

	size, err := repo.GetCacheSize(ctx, constants.CacheKeyPrefixDedup)
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestIntakeRepository_StoreSignalAndGetSnapshot(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := intake.NewRepository(infra.RedisClient)
	ctx := context.Background()

	observedAt := time.Now().UTC().Truncate(time.Millisecond)
	signal := models.Signal{
		Name:       "accuracy",
		Value:      models.NumberValue(0.87),
		ObservedAt: observedAt,
	}

	err := repo.StoreSignal(ctx, "model-a", signal, time.Hour)
	require.NoError(t, err)

	snapshot, err := repo.GetSnapshot(ctx, "model-a")
	require.NoError(t, err)
	assert.Equal(t, "model-a", snapshot.Scope)
	require.Contains(t, snapshot.Signals, "accuracy")
	assert.Equal(t, models.NumberValue(0.87), snapshot.Signals["accuracy"].Value)
	assert.True(t, snapshot.Signals["accuracy"].ObservedAt.Equal(observedAt))
}

func TestIntakeRepository_StoreSignal_KeepsLatestPerName(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := intake.NewRepository(infra.RedisClient)
	ctx := context.Background()

	first := models.Signal{Name: "accuracy", Value: models.NumberValue(0.95), ObservedAt: time.Now().UTC()}
	second := models.Signal{Name: "accuracy", Value: models.NumberValue(0.87), ObservedAt: time.Now().UTC()}
	other := models.Signal{Name: "drift_score", Value: models.NumberValue(0.4), ObservedAt: time.Now().UTC()}

	require.NoError(t, repo.StoreSignal(ctx, "model-a", first, time.Hour))
	require.NoError(t, repo.StoreSignal(ctx, "model-a", second, time.Hour))
	require.NoError(t, repo.StoreSignal(ctx, "model-a", other, time.Hour))

	snapshot, err := repo.GetSnapshot(ctx, "model-a")
	require.NoError(t, err)
	assert.Len(t, snapshot.Signals, 2)
	assert.Equal(t, models.NumberValue(0.87), snapshot.Signals["accuracy"].Value)
	assert.Equal(t, models.NumberValue(0.4), snapshot.Signals["drift_score"].Value)
}

func TestIntakeRepository_StoreSignal_IgnoresStaleObservation(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := intake.NewRepository(infra.RedisClient)
	ctx := context.Background()

	newest := time.Now().UTC().Truncate(time.Millisecond)
	stale := newest.Add(-time.Minute)

	current := models.Signal{Name: "accuracy", Value: models.NumberValue(0.87), ObservedAt: newest}
	late := models.Signal{Name: "accuracy", Value: models.NumberValue(0.95), ObservedAt: stale}

	require.NoError(t, repo.StoreSignal(ctx, "model-a", current, time.Hour))

	// An out-of-order delivery must not roll the snapshot back.
	require.NoError(t, repo.StoreSignal(ctx, "model-a", late, time.Hour))

	snapshot, err := repo.GetSnapshot(ctx, "model-a")
	require.NoError(t, err)
	require.Contains(t, snapshot.Signals, "accuracy")
	assert.Equal(t, models.NumberValue(0.87), snapshot.Signals["accuracy"].Value)
	assert.True(t, snapshot.Signals["accuracy"].ObservedAt.Equal(newest))
}

func TestIntakeRepository_GetSnapshot_EmptyScope(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := intake.NewRepository(infra.RedisClient)

	snapshot, err := repo.GetSnapshot(context.Background(), "unknown-scope")
	require.NoError(t, err)
	assert.Equal(t, "unknown-scope", snapshot.Scope)
	assert.Empty(t, snapshot.Signals)
}

func TestIntakeRepository_BoolSignalRoundTrip(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	repo := intake.NewRepository(infra.RedisClient)
	ctx := context.Background()

	signal := models.Signal{
		Name:       "pipeline_healthy",
		Value:      models.BoolValue(false),
		ObservedAt: time.Now().UTC(),
	}

	require.NoError(t, repo.StoreSignal(ctx, "model-a", signal, time.Hour))

	snapshot, err := repo.GetSnapshot(ctx, "model-a")
	require.NoError(t, err)
	require.Contains(t, snapshot.Signals, "pipeline_healthy")
	assert.Equal(t, models.ValueKindBool, snapshot.Signals["pipeline_healthy"].Value.Kind)
	assert.False(t, snapshot.Signals["pipeline_healthy"].Value.Bool)
}
