package management

import (
	"context"
	"time"

	"github.com/google/uuid"

	"driftwatch/internal/broker"
	"driftwatch/pkg/logging"
	"driftwatch/pkg/models"
)

// ConfigEventProducer publishes rule and config change events so the
// evaluator and intake services can reload without a restart.
type ConfigEventProducer struct {
	producer broker.Producer
	topic    string
}

func NewConfigEventProducer(producer broker.Producer, topic string) *ConfigEventProducer {
	return &ConfigEventProducer{
		producer: producer,
		topic:    topic,
	}
}

func (p *ConfigEventProducer) PublishTriggerRuleEvent(ctx context.Context, action, ruleID, changedBy string) error {
	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeTriggerRuleUpdated,
		ServiceType: models.ServiceTypeEvaluation,
		RuleID:      ruleID,
		Action:      action,
		Timestamp:   time.Now(),
		ChangedBy:   changedBy,
	}
	return p.publishEvent(ctx, event)
}

func (p *ConfigEventProducer) PublishIntakeConfigEvent(ctx context.Context, action, changedBy string, metadata map[string]interface{}) error {
	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeIntakeConfigUpdated,
		ServiceType: models.ServiceTypeIntake,
		Action:      action,
		Timestamp:   time.Now(),
		ChangedBy:   changedBy,
		Metadata:    metadata,
	}
	return p.publishEvent(ctx, event)
}

func (p *ConfigEventProducer) publishEvent(ctx context.Context, event models.ConfigUpdateEvent) error {
	if p.producer == nil || p.topic == "" {
		return nil
	}

	envelope := models.ConfigEventEnvelope{
		ID:        uuid.New().String(),
		Source:    "management-service",
		Event:     event,
		Timestamp: time.Now(),
		Metadata: models.Metadata{
			TraceID: logging.GetTraceID(ctx),
		},
	}

	msg, err := broker.NewMessage(envelope.ID, envelope.Metadata.TraceID, envelope)
	if err != nil {
		return err
	}

	return p.producer.Publish(ctx, p.topic, msg)
}
