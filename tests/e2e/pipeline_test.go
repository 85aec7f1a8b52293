package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"driftwatch/internal/management"
	"driftwatch/pkg/models"
)

const (
	kafkaBroker        = "localhost:29092"
	observationsTopic  = "signal_observations"
	snapshotsTopic     = "signal_snapshots"
	decisionsTopic     = "trigger_decisions"
	messageWaitTimeout = 30 * time.Second
)

func TestPipelineEndToEnd(t *testing.T) {
	createReq := management.CreateTriggerRuleRequest{
		Name:      "e2e_accuracy_drop",
		Signal:    "accuracy",
		Operator:  "lt",
		Threshold: management.ThresholdPayload{Kind: "number", Number: float64Ptr(0.9)},
		Priority:  10,
		Enabled:   boolPtr(true),
	}
	ruleID := createTriggerRule(t, createReq)
	defer deleteTriggerRule(t, ruleID)

	time.Sleep(3 * time.Second)

	traceID := uuid.New().String()
	observation := testObservation("e2e-scope-"+uuid.New().String(), "accuracy", models.NumberValue(0.85), traceID)

	err := sendObservation(t, observation)
	require.NoError(t, err, "failed to send observation")

	snapshot := waitForSnapshot(t, traceID)
	require.NotNil(t, snapshot, "observation should produce a snapshot")
	assert.Equal(t, observation.Scope, snapshot.Snapshot.Scope)
	assert.Contains(t, snapshot.Snapshot.Signals, "accuracy")
	require.NotNil(t, snapshot.Metadata.Deduplication)
	assert.True(t, snapshot.Metadata.Deduplication.IsUnique)

	decision := waitForDecision(t, traceID)
	require.NotNil(t, decision, "snapshot should produce a decision")
	assert.Equal(t, observation.Scope, decision.Decision.Scope)
	assert.True(t, decision.Decision.ShouldTrigger, "accuracy 0.85 below threshold 0.9 should fire")

	firedIDs := make([]string, 0, len(decision.Decision.FiredRules))
	for _, fired := range decision.Decision.FiredRules {
		firedIDs = append(firedIDs, fired.RuleID)
	}
	assert.Contains(t, firedIDs, ruleID, "created rule should be among the fired rules")
	require.NotNil(t, decision.Metadata.Evaluation)
	assert.GreaterOrEqual(t, decision.Metadata.Evaluation.RuleCount, 1)
}

func TestPipelineNoTrigger(t *testing.T) {
	createReq := management.CreateTriggerRuleRequest{
		Name:      "e2e_drift_spike",
		Signal:    "drift_score",
		Operator:  "gt",
		Threshold: management.ThresholdPayload{Kind: "number", Number: float64Ptr(0.5)},
		Priority:  10,
		Enabled:   boolPtr(true),
	}
	ruleID := createTriggerRule(t, createReq)
	defer deleteTriggerRule(t, ruleID)

	time.Sleep(2 * time.Second)

	traceID := uuid.New().String()
	observation := testObservation("e2e-scope-"+uuid.New().String(), "drift_score", models.NumberValue(0.2), traceID)

	err := sendObservation(t, observation)
	require.NoError(t, err)

	decision := waitForDecision(t, traceID)
	require.NotNil(t, decision, "snapshot should still be evaluated")
	assert.False(t, decision.Decision.ShouldTrigger, "drift 0.2 under threshold 0.5 should not fire")
	assert.Empty(t, decision.Decision.FiredRules)
}

func TestPipelineDeduplication(t *testing.T) {
	updateReq := management.UpdateIntakeConfigRequest{
		HashAlgorithm: stringPtr("sha256"),
		TTLSeconds:    intPtr(3600),
		OnRedisError:  stringPtr("accept"),
		FieldsToHash:  &[]string{"scope", "signal", "value", "observed_at"},
	}
	_ = updateIntakeConfig(t, updateReq)

	time.Sleep(2 * time.Second)

	scope := "e2e-dedup-" + uuid.New().String()
	observedAt := time.Now().UTC().Truncate(time.Second)

	firstTrace := uuid.New().String()
	first := testObservation(scope, "accuracy", models.NumberValue(0.8), firstTrace)
	first.Signal.ObservedAt = observedAt

	err := sendObservation(t, first)
	require.NoError(t, err)

	snapshot := waitForSnapshot(t, firstTrace)
	require.NotNil(t, snapshot, "first observation should be accepted")

	time.Sleep(2 * time.Second)

	secondTrace := uuid.New().String()
	duplicate := testObservation(scope, "accuracy", models.NumberValue(0.8), secondTrace)
	duplicate.Signal.ObservedAt = observedAt

	err = sendObservation(t, duplicate)
	require.NoError(t, err)

	time.Sleep(3 * time.Second)

	duplicateSnapshot := tryGetSnapshot(t, secondTrace)
	assert.Nil(t, duplicateSnapshot, "duplicate observation should be dropped before the snapshot topic")
}

func TestPipelineCooldown(t *testing.T) {
	createReq := management.CreateTriggerRuleRequest{
		Name:            "e2e_cooldown_rule",
		Signal:          "error_rate",
		Operator:        "gt",
		Threshold:       management.ThresholdPayload{Kind: "number", Number: float64Ptr(0.1)},
		CooldownSeconds: 3600,
		Priority:        10,
		Enabled:         boolPtr(true),
	}
	ruleID := createTriggerRule(t, createReq)
	defer deleteTriggerRule(t, ruleID)

	time.Sleep(2 * time.Second)

	scope := "e2e-cooldown-" + uuid.New().String()

	firstTrace := uuid.New().String()
	err := sendObservation(t, testObservation(scope, "error_rate", models.NumberValue(0.5), firstTrace))
	require.NoError(t, err)

	firstDecision := waitForDecision(t, firstTrace)
	require.NotNil(t, firstDecision)
	assert.True(t, firstDecision.Decision.ShouldTrigger, "first breach should fire")

	secondTrace := uuid.New().String()
	err = sendObservation(t, testObservation(scope, "error_rate", models.NumberValue(0.6), secondTrace))
	require.NoError(t, err)

	secondDecision := waitForDecision(t, secondTrace)
	require.NotNil(t, secondDecision)
	assert.False(t, secondDecision.Decision.ShouldTrigger, "second breach inside cooldown should not fire")

	cooldownSkipped := false
	for _, skipped := range secondDecision.Decision.SkippedRules {
		if skipped.RuleID == ruleID && skipped.Reason == models.SkipReasonCooldownActive {
			cooldownSkipped = true
		}
	}
	assert.True(t, cooldownSkipped, "rule should be skipped with cooldown_active")
}

func TestPipelineWithRuleUpdate(t *testing.T) {
	createReq := management.CreateTriggerRuleRequest{
		Name:      "e2e_update_rule",
		Signal:    "latency_p99",
		Operator:  "gt",
		Threshold: management.ThresholdPayload{Kind: "number", Number: float64Ptr(100)},
		Priority:  10,
		Enabled:   boolPtr(true),
	}
	ruleID := createTriggerRule(t, createReq)
	defer deleteTriggerRule(t, ruleID)

	time.Sleep(2 * time.Second)

	scope := "e2e-update-" + uuid.New().String()

	firstTrace := uuid.New().String()
	err := sendObservation(t, testObservation(scope, "latency_p99", models.NumberValue(150), firstTrace))
	require.NoError(t, err)

	firstDecision := waitForDecision(t, firstTrace)
	require.NotNil(t, firstDecision)
	assert.True(t, firstDecision.Decision.ShouldTrigger, "latency 150 above threshold 100 should fire")

	updateReq := management.UpdateTriggerRuleRequest{
		Threshold: &management.ThresholdPayload{Kind: "number", Number: float64Ptr(500)},
	}
	updatedRule := updateTriggerRule(t, ruleID, updateReq)
	assert.Equal(t, models.NumberValue(500), updatedRule.Threshold, "threshold should be updated")

	// Wait past the evaluator's rule reload window.
	time.Sleep(10 * time.Second)

	secondTrace := uuid.New().String()
	err = sendObservation(t, testObservation(scope, "latency_p99", models.NumberValue(150), secondTrace))
	require.NoError(t, err)

	secondDecision := waitForDecision(t, secondTrace)
	require.NotNil(t, secondDecision)
	assert.False(t, secondDecision.Decision.ShouldTrigger, "latency 150 should not fire after threshold raised to 500")
}

func testObservation(scope, signalName string, value models.Value, traceID string) models.ObservationEnvelope {
	now := time.Now().UTC()
	return models.ObservationEnvelope{
		ID:     uuid.New().String(),
		Source: "e2e_test",
		Scope:  scope,
		Signal: models.Signal{
			Name:       signalName,
			Value:      value,
			ObservedAt: now,
		},
		Timestamp: now,
		Metadata: models.Metadata{
			TraceID: traceID,
		},
	}
}

func sendObservation(t *testing.T, observation models.ObservationEnvelope) error {
	t.Helper()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(kafkaBroker),
		Topic:        observationsTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	body, err := json.Marshal(observation)
	if err != nil {
		return fmt.Errorf("failed to marshal observation: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(observation.ID),
			Value: body,
			Time:  time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to write observation: %w", err)
	}

	return nil
}

func waitForSnapshot(t *testing.T, traceID string) *models.SnapshotEnvelope {
	t.Helper()
	return readSnapshot(t, traceID, kafka.FirstOffset, messageWaitTimeout)
}

func tryGetSnapshot(t *testing.T, traceID string) *models.SnapshotEnvelope {
	t.Helper()
	return readSnapshot(t, traceID, kafka.LastOffset, 10*time.Second)
}

func readSnapshot(t *testing.T, traceID string, startOffset int64, timeout time.Duration) *models.SnapshotEnvelope {
	t.Helper()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          snapshotsTopic,
		GroupID:        fmt.Sprintf("e2e-snapshot-waiter-%s", uuid.New().String()),
		StartOffset:    startOffset,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        2 * time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if err == context.DeadlineExceeded {
				return nil
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		var envelope models.SnapshotEnvelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		_ = reader.CommitMessages(ctx, msg)

		if envelope.Metadata.TraceID == traceID {
			return &envelope
		}
	}
}

func waitForDecision(t *testing.T, traceID string) *models.DecisionEnvelope {
	t.Helper()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          decisionsTopic,
		GroupID:        fmt.Sprintf("e2e-decision-waiter-%s", uuid.New().String()),
		StartOffset:    kafka.FirstOffset,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        2 * time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), messageWaitTimeout)
	defer cancel()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if err == context.DeadlineExceeded {
				return nil
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		var envelope models.DecisionEnvelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		_ = reader.CommitMessages(ctx, msg)

		if envelope.Metadata.TraceID == traceID {
			return &envelope
		}
	}
}
