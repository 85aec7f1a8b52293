package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

const (
	CacheKeyPrefixDedup    = "dedup:"
	CacheKeyPrefixSnapshot = "snapshot:"
	CacheKeyPrefixState    = "trigger_state:"
)

const (
	DefaultObservationsTopic = "signal_observations"
	DefaultSnapshotsTopic    = "signal_snapshots"
	DefaultDecisionsTopic    = "trigger_decisions"
)

const (
	DefaultMongoDBName = "driftwatch"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

const (
	DefaultTTLSeconds = 3600

	// DefaultStateTTL bounds how long an idle scope's cooldown hash
	// lives in Redis. Must exceed the longest configured cooldown.
	DefaultStateTTL = 30 * 24 * time.Hour
)

const (
	FallbackProceed  = "proceed"
	FallbackSuppress = "suppress"
	FallbackAccept   = "accept"
	FallbackDrop     = "drop"
	FallbackFail     = "fail"
)

const (
	HashAlgorithmMD5    = "md5"
	HashAlgorithmSHA256 = "sha256"
)

// NumericEqualityEpsilon is the absolute tolerance used when comparing
// numeric signal values with the eq operator.
const NumericEqualityEpsilon = 1e-9
