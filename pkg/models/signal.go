package models

import (
	"fmt"
	"time"
)

type ValueKind string

const (
	ValueKindNumber ValueKind = "number"
	ValueKindBool   ValueKind = "bool"
)

// Value is a tagged union over the two signal value types. Kind decides
// which of Number or Bool is meaningful.
type Value struct {
	Kind   ValueKind `json:"kind" bson:"kind"`
	Number float64   `json:"number,omitempty" bson:"number,omitempty"`
	Bool   bool      `json:"bool,omitempty" bson:"bool,omitempty"`
}

func NumberValue(n float64) Value {
	return Value{Kind: ValueKindNumber, Number: n}
}

func BoolValue(b bool) Value {
	return Value{Kind: ValueKindBool, Bool: b}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueKindNumber:
		return fmt.Sprintf("%g", v.Number)
	case ValueKindBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return fmt.Sprintf("<unknown kind %q>", string(v.Kind))
	}
}

// Signal is a single named observation. Immutable once recorded.
type Signal struct {
	Name       string    `json:"name"`
	Value      Value     `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

// SignalSnapshot is the set of current signals an evaluation runs
// against, keyed by signal name. Scope groups signals that belong to
// the same monitored model.
type SignalSnapshot struct {
	Scope       string            `json:"scope"`
	Signals     map[string]Signal `json:"signals"`
	GeneratedAt time.Time         `json:"generated_at"`
}

func (s SignalSnapshot) Get(name string) (Signal, bool) {
	sig, ok := s.Signals[name]
	return sig, ok
}
