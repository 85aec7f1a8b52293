package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"
	"driftwatch/internal/broker"
	"driftwatch/internal/config"
	"driftwatch/pkg/models"
)

func setupKafkaBroker(t *testing.T) config.BrokerConfig {
	t.Helper()

	ctx := context.Background()

	container, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("test-cluster"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	return config.BrokerConfig{
		Type: "kafka",
		Kafka: config.KafkaConfig{
			Brokers: brokers,
			GroupID: "integration-test-" + uuid.New().String(),
		},
	}
}

func TestBroker_PublishConsumeRoundTrip(t *testing.T) {
	cfg := setupKafkaBroker(t)
	log := createTestLogger()

	producer, err := broker.NewProducer(cfg, log)
	require.NoError(t, err)
	defer producer.Close()

	consumer, err := broker.NewConsumer(cfg, log)
	require.NoError(t, err)
	consumer.SetServiceName("integration-test")
	defer consumer.Close()

	topic := "test_snapshots"
	traceID := uuid.New().String()

	envelope := models.SnapshotEnvelope{
		ID:     uuid.New().String(),
		Source: "integration-test",
		Snapshot: models.SignalSnapshot{
			Scope: "model-a",
			Signals: map[string]models.Signal{
				"accuracy": {
					Name:       "accuracy",
					Value:      models.NumberValue(0.87),
					ObservedAt: time.Now().UTC(),
				},
			},
			GeneratedAt: time.Now().UTC(),
		},
		Timestamp: time.Now().UTC(),
		Metadata:  models.Metadata{TraceID: traceID},
	}

	received := make(chan broker.Message, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = consumer.Consume(ctx, topic, func(_ context.Context, msg broker.Message) error {
			select {
			case received <- msg:
			default:
			}
			return nil
		})
	}()

	// Give the consumer group time to join before producing.
	time.Sleep(5 * time.Second)

	msg, err := broker.NewMessage(envelope.ID, traceID, envelope)
	require.NoError(t, err)

	publishCtx, publishCancel := context.WithTimeout(ctx, 30*time.Second)
	defer publishCancel()
	require.NoError(t, producer.Publish(publishCtx, topic, msg))

	select {
	case got := <-received:
		assert.Equal(t, envelope.ID, got.ID)
		assert.Equal(t, traceID, got.TraceID)

		var decoded models.SnapshotEnvelope
		require.NoError(t, json.Unmarshal(got.Value, &decoded))
		assert.Equal(t, "model-a", decoded.Snapshot.Scope)
		assert.Contains(t, decoded.Snapshot.Signals, "accuracy")
	case <-time.After(60 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
