package models

import "time"

// ObservationEnvelope carries one raw signal observation through the
// intake topic.
type ObservationEnvelope struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Scope     string    `json:"scope"`
	Signal    Signal    `json:"signal"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"` // Pipeline metadata (trace_id, intake info)
}

// SnapshotEnvelope carries a refreshed signal snapshot from intake to
// the evaluator.
type SnapshotEnvelope struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Snapshot  SignalSnapshot `json:"snapshot"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  Metadata       `json:"metadata"`
}

// DecisionEnvelope carries a trigger decision to downstream training
// pipelines.
type DecisionEnvelope struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Decision  TriggerDecision `json:"decision"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  Metadata        `json:"metadata"`
}

type Metadata struct {
	TraceID       string             `json:"trace_id,omitempty"`
	Deduplication *DeduplicationInfo `json:"deduplication,omitempty"`
	Evaluation    *EvaluationInfo    `json:"evaluation,omitempty"`
}

type DeduplicationInfo struct {
	IsUnique  bool      `json:"is_unique"`
	CheckedAt time.Time `json:"checked_at"`
}

type EvaluationInfo struct {
	EvaluatedAt time.Time `json:"evaluated_at"`
	RuleCount   int       `json:"rule_count"`
}
