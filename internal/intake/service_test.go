package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/internal/config"
	"driftwatch/internal/logger"
	"driftwatch/pkg/models"
)

type fakeRepository struct {
	dedupKeys map[string]struct{}
	snapshots map[string]map[string]models.Signal
	setNXErr  error
	storeErr  error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		dedupKeys: make(map[string]struct{}),
		snapshots: make(map[string]map[string]models.Signal),
	}
}

func (f *fakeRepository) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	if _, exists := f.dedupKeys[key]; exists {
		return false, nil
	}
	f.dedupKeys[key] = struct{}{}
	return true, nil
}

func (f *fakeRepository) Delete(_ context.Context, key string) error {
	delete(f.dedupKeys, key)
	return nil
}

func (f *fakeRepository) GetCacheSize(_ context.Context, _ string) (int, error) {
	return len(f.dedupKeys), nil
}

func (f *fakeRepository) StoreSignal(_ context.Context, scope string, signal models.Signal, _ time.Duration) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.snapshots[scope] == nil {
		f.snapshots[scope] = make(map[string]models.Signal)
	}
	f.snapshots[scope][signal.Name] = signal
	return nil
}

func (f *fakeRepository) GetSnapshot(_ context.Context, scope string) (models.SignalSnapshot, error) {
	signals := make(map[string]models.Signal, len(f.snapshots[scope]))
	for name, sig := range f.snapshots[scope] {
		signals[name] = sig
	}
	return models.SignalSnapshot{
		Scope:       scope,
		Signals:     signals,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func testIntakeConfig(onRedisError string) config.IntakeConfig {
	return config.IntakeConfig{
		Dedup: config.DedupConfig{
			HashAlgorithm: "md5",
			TTLSeconds:    3600,
			OnRedisError:  onRedisError,
			FieldsToHash:  []string{"scope", "signal", "value", "observed_at"},
		},
		SnapshotTTLSeconds: 7200,
	}
}

func testObservation(scope, signalName string, value float64, observedAt time.Time) models.ObservationEnvelope {
	return models.ObservationEnvelope{
		ID:     "obs-1",
		Source: "metrics-agent",
		Scope:  scope,
		Signal: models.Signal{
			Name:       signalName,
			Value:      models.NumberValue(value),
			ObservedAt: observedAt,
		},
		Timestamp: observedAt,
	}
}

func TestProcessAcceptsUniqueObservation(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(repo, testIntakeConfig("fail"), logger.NopLogger())
	defer service.StopCacheMetricsUpdater()

	observedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accepted, snapshot, err := service.Process(context.Background(), testObservation("churn-model", "drift_score", 0.42, observedAt))
	require.NoError(t, err)

	assert.True(t, accepted)
	assert.Equal(t, "churn-model", snapshot.Scope)
	require.Contains(t, snapshot.Signals, "drift_score")
	assert.InDelta(t, 0.42, snapshot.Signals["drift_score"].Value.Number, 1e-12)
}

func TestProcessDropsDuplicate(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(repo, testIntakeConfig("fail"), logger.NopLogger())
	defer service.StopCacheMetricsUpdater()

	observedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	obs := testObservation("churn-model", "drift_score", 0.42, observedAt)

	accepted, _, err := service.Process(context.Background(), obs)
	require.NoError(t, err)
	require.True(t, accepted)

	accepted, _, err = service.Process(context.Background(), obs)
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestProcessSnapshotKeepsLatestValuePerSignal(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(repo, testIntakeConfig("fail"), logger.NopLogger())
	defer service.StopCacheMetricsUpdater()

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	_, _, err := service.Process(context.Background(), testObservation("churn-model", "drift_score", 0.42, first))
	require.NoError(t, err)

	accepted, snapshot, err := service.Process(context.Background(), testObservation("churn-model", "drift_score", 0.55, second))
	require.NoError(t, err)
	require.True(t, accepted)

	assert.Len(t, snapshot.Signals, 1)
	assert.InDelta(t, 0.55, snapshot.Signals["drift_score"].Value.Number, 1e-12)
}

func TestProcessRejectsInvalidObservation(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(repo, testIntakeConfig("fail"), logger.NopLogger())
	defer service.StopCacheMetricsUpdater()

	obs := testObservation("", "drift_score", 0.42, time.Now().UTC())

	accepted, _, err := service.Process(context.Background(), obs)
	assert.Error(t, err)
	assert.False(t, accepted)
}

func TestProcessRedisErrorFallbacks(t *testing.T) {
	observedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		onRedisError string
		wantAccepted bool
		wantErr      bool
	}{
		{name: "accept keeps the observation", onRedisError: "accept", wantAccepted: true},
		{name: "drop discards the observation", onRedisError: "drop", wantAccepted: false},
		{name: "fail surfaces the error", onRedisError: "fail", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			repo.setNXErr = errors.New("connection refused")

			service := NewService(repo, testIntakeConfig(tt.onRedisError), logger.NopLogger())
			defer service.StopCacheMetricsUpdater()

			accepted, _, err := service.Process(context.Background(), testObservation("churn-model", "drift_score", 0.42, observedAt))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccepted, accepted)
		})
	}
}

func TestProcessStoreErrorReleasesDedupKey(t *testing.T) {
	repo := newFakeRepository()
	repo.storeErr = errors.New("connection refused")

	service := NewService(repo, testIntakeConfig("fail"), logger.NopLogger())
	defer service.StopCacheMetricsUpdater()

	observedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	obs := testObservation("churn-model", "drift_score", 0.42, observedAt)

	_, _, err := service.Process(context.Background(), obs)
	require.Error(t, err)
	assert.Empty(t, repo.dedupKeys, "failed store must not leave a dedup claim behind")

	// The redelivered observation is not a duplicate of its failed self.
	repo.storeErr = nil
	accepted, _, err := service.Process(context.Background(), obs)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestApplyConfigUpdatesFieldsToHash(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(repo, testIntakeConfig("fail"), logger.NopLogger())
	defer service.StopCacheMetricsUpdater()

	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeIntakeConfigUpdated,
		ServiceType: models.ServiceTypeIntake,
		Action:      models.ActionUpdate,
		Metadata: map[string]interface{}{
			"fields_to_hash": []interface{}{"scope", "signal"},
		},
	}

	require.NoError(t, service.ApplyConfig(event))
	assert.Equal(t, []string{"scope", "signal"}, service.GetFieldsToHash())
}

func TestApplyConfigRejectsEmptyFields(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(repo, testIntakeConfig("fail"), logger.NopLogger())
	defer service.StopCacheMetricsUpdater()

	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeIntakeConfigUpdated,
		ServiceType: models.ServiceTypeIntake,
		Action:      models.ActionUpdate,
		Metadata: map[string]interface{}{
			"fields_to_hash": []interface{}{},
		},
	}

	assert.Error(t, service.ApplyConfig(event))
}
