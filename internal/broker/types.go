package broker

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is the wire frame shared by every driftwatch topic. Value is
// the JSON-encoded envelope body; ID and TraceID are lifted out of the
// body so the broker can key partitions and propagate log context
// without knowing the payload type.
type Message struct {
	ID      string
	TraceID string
	Value   []byte
}

func NewMessage(id, traceID string, body interface{}) (Message, error) {
	value, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal message body: %w", err)
	}
	return Message{ID: id, TraceID: traceID, Value: value}, nil
}

type Producer interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, msg Message) error
