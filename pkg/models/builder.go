package models

import "time"

type ObservationEnvelopeBuilder struct {
	envelope *ObservationEnvelope
}

func NewObservationEnvelopeBuilder() *ObservationEnvelopeBuilder {
	return &ObservationEnvelopeBuilder{
		envelope: &ObservationEnvelope{
			Metadata: Metadata{},
		},
	}
}

func (b *ObservationEnvelopeBuilder) WithID(id string) *ObservationEnvelopeBuilder {
	b.envelope.ID = id
	return b
}

func (b *ObservationEnvelopeBuilder) WithSource(source string) *ObservationEnvelopeBuilder {
	b.envelope.Source = source
	return b
}

func (b *ObservationEnvelopeBuilder) WithScope(scope string) *ObservationEnvelopeBuilder {
	b.envelope.Scope = scope
	return b
}

func (b *ObservationEnvelopeBuilder) WithSignal(signal Signal) *ObservationEnvelopeBuilder {
	b.envelope.Signal = signal
	return b
}

func (b *ObservationEnvelopeBuilder) WithTimestamp(timestamp time.Time) *ObservationEnvelopeBuilder {
	b.envelope.Timestamp = timestamp
	return b
}

func (b *ObservationEnvelopeBuilder) WithMetadata(metadata Metadata) *ObservationEnvelopeBuilder {
	b.envelope.Metadata = metadata
	return b
}

func (b *ObservationEnvelopeBuilder) WithTraceID(traceID string) *ObservationEnvelopeBuilder {
	b.envelope.Metadata.TraceID = traceID
	return b
}

func (b *ObservationEnvelopeBuilder) Build() *ObservationEnvelope {
	if b.envelope.Timestamp.IsZero() {
		b.envelope.Timestamp = time.Now()
	}
	if b.envelope.Signal.ObservedAt.IsZero() {
		b.envelope.Signal.ObservedAt = b.envelope.Timestamp
	}
	return b.envelope
}
