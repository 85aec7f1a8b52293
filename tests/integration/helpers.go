package integration

import (
	"time"

	"driftwatch/internal/config"
	"driftwatch/internal/constants"
	"driftwatch/internal/logger"
	"driftwatch/pkg/models"
)

const (
	containerStartupTimeout = 60
	timestampDelay          = 10 * time.Millisecond
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestEvaluationConfig() config.EvaluationConfig {
	return config.EvaluationConfig{
		Fallback: config.EvaluationFallback{
			OnStateError: constants.FallbackProceed,
		},
		Reload: config.ReloadConfig{
			IntervalSeconds: 60,
		},
	}
}

func createTestIntakeConfig() config.IntakeConfig {
	return createTestIntakeConfigWithFields([]string{"scope", "signal", "value", "observed_at"})
}

func createTestIntakeConfigWithFields(fields []string) config.IntakeConfig {
	return config.IntakeConfig{
		Dedup: config.DedupConfig{
			HashAlgorithm: "md5",
			TTLSeconds:    300,
			OnRedisError:  constants.FallbackAccept,
			FieldsToHash:  fields,
		},
		SnapshotTTLSeconds: 3600,
	}
}

func createTestTriggerRule(name, signal string, operator models.Operator, threshold models.Value, priority int, enabled bool) *models.TriggerRule {
	return &models.TriggerRule{
		Name:            name,
		Signal:          signal,
		Operator:        operator,
		Threshold:       threshold,
		CooldownSeconds: 0,
		Priority:        priority,
		Enabled:         enabled,
	}
}

func createTestObservation(id, scope, signalName string, value models.Value) models.ObservationEnvelope {
	now := time.Now().UTC()
	return models.ObservationEnvelope{
		ID:     id,
		Source: "integration-test",
		Scope:  scope,
		Signal: models.Signal{
			Name:       signalName,
			Value:      value,
			ObservedAt: now,
		},
		Timestamp: now,
		Metadata:  models.Metadata{},
	}
}
