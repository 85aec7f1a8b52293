package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateObservationEnvelope(msg *ObservationEnvelope) error {
	if msg == nil {
		return &ValidationError{
			Field:   "envelope",
			Message: "observation envelope cannot be nil",
		}
	}

	if msg.ID == "" {
		return &ValidationError{
			Field:   "id",
			Message: "observation ID is required",
		}
	}

	if msg.Source == "" {
		return &ValidationError{
			Field:   "source",
			Message: "observation source is required",
		}
	}

	if msg.Scope == "" {
		return &ValidationError{
			Field:   "scope",
			Message: "observation scope is required",
		}
	}

	if msg.Timestamp.IsZero() {
		return &ValidationError{
			Field:   "timestamp",
			Message: "observation timestamp is required",
		}
	}

	return validateSignal(msg.Signal)
}

func ValidateSnapshotEnvelope(msg *SnapshotEnvelope) error {
	if msg == nil {
		return &ValidationError{
			Field:   "envelope",
			Message: "snapshot envelope cannot be nil",
		}
	}

	if msg.ID == "" {
		return &ValidationError{
			Field:   "id",
			Message: "snapshot ID is required",
		}
	}

	if msg.Snapshot.Scope == "" {
		return &ValidationError{
			Field:   "snapshot.scope",
			Message: "snapshot scope is required",
		}
	}

	for name, sig := range msg.Snapshot.Signals {
		if name != sig.Name {
			return &ValidationError{
				Field:   "snapshot.signals",
				Message: fmt.Sprintf("signal keyed as '%s' is named '%s'", name, sig.Name),
			}
		}
		if err := validateSignal(sig); err != nil {
			return err
		}
	}

	return nil
}

func validateSignal(sig Signal) error {
	if sig.Name == "" {
		return &ValidationError{
			Field:   "signal.name",
			Message: "signal name is required",
		}
	}

	if sig.Value.Kind != ValueKindNumber && sig.Value.Kind != ValueKindBool {
		return &ValidationError{
			Field:   "signal.value.kind",
			Message: fmt.Sprintf("unknown value kind '%s'", sig.Value.Kind),
		}
	}

	if sig.ObservedAt.IsZero() {
		return &ValidationError{
			Field:   "signal.observed_at",
			Message: "signal observation time is required",
		}
	}

	return nil
}
