package intake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"driftwatch/internal/config"
	"driftwatch/internal/constants"
	"driftwatch/internal/logger"
	"driftwatch/pkg/metrics"
	"driftwatch/pkg/models"
	"driftwatch/pkg/tracing"
)

type redisErrorHandlingStatus int

const (
	redisErrorHandlingDrop redisErrorHandlingStatus = iota
	redisErrorHandlingAccept
	redisErrorHandlingFail
)

var defaultFieldsToHash = []string{"scope", "signal", "value", "observed_at"}

// Service validates observations, suppresses duplicates and maintains
// the latest-value snapshot per scope.
type Service struct {
	repo             Repository
	hasher           *Hasher
	cfg              config.IntakeConfig
	fieldsToHash     []string
	logger           logger.Logger
	fieldsMu         sync.RWMutex
	stopCacheMetrics chan struct{}
	cancelMetricsCtx context.CancelFunc
}

func NewService(repo Repository, cfg config.IntakeConfig, log logger.Logger) *Service {
	fieldsToHash := cfg.Dedup.FieldsToHash
	if len(fieldsToHash) == 0 {
		fieldsToHash = defaultFieldsToHash
		log.Infow("No fields_to_hash configured, using defaults", "fields", fieldsToHash)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		repo:             repo,
		hasher:           NewHasher(cfg.Dedup.HashAlgorithm),
		cfg:              cfg,
		fieldsToHash:     fieldsToHash,
		logger:           log,
		stopCacheMetrics: make(chan struct{}),
		cancelMetricsCtx: cancel,
	}

	go s.updateCacheSizeMetrics(ctx)

	return s
}

// Process validates one observation, checks it for duplication and, if
// accepted, folds it into the scope's snapshot. The refreshed snapshot
// is returned for publication.
func (s *Service) Process(ctx context.Context, obs models.ObservationEnvelope) (bool, models.SignalSnapshot, error) {
	ctx, span := tracing.GetTracer("intake-service").Start(ctx, "intake.process")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return false, models.SignalSnapshot{}, err
	}

	start := time.Now()

	if err := models.ValidateObservationEnvelope(&obs); err != nil {
		s.recordMetricsWithStatus(time.Since(start), "invalid")
		return false, models.SignalSnapshot{}, err
	}

	unique, dedupKey, err := s.checkDuplicate(ctx, obs)
	if err != nil {
		s.recordMetricsWithStatus(time.Since(start), "error")
		return false, models.SignalSnapshot{}, err
	}

	if !unique {
		s.recordMetricsWithStatus(time.Since(start), "duplicate")
		return false, models.SignalSnapshot{}, nil
	}

	ttl := time.Duration(s.cfg.SnapshotTTLSeconds) * time.Second
	if err := s.repo.StoreSignal(ctx, obs.Scope, obs.Signal, ttl); err != nil {
		s.releaseDedupKey(ctx, dedupKey)
		s.recordMetricsWithStatus(time.Since(start), "error")
		return false, models.SignalSnapshot{}, fmt.Errorf("failed to store signal for scope %s: %w", obs.Scope, err)
	}

	snapshot, err := s.repo.GetSnapshot(ctx, obs.Scope)
	if err != nil {
		s.releaseDedupKey(ctx, dedupKey)
		s.recordMetricsWithStatus(time.Since(start), "error")
		return false, models.SignalSnapshot{}, fmt.Errorf("failed to read snapshot for scope %s: %w", obs.Scope, err)
	}

	s.recordMetricsWithStatus(time.Since(start), "accepted")
	return true, snapshot, nil
}

func (s *Service) checkDuplicate(ctx context.Context, obs models.ObservationEnvelope) (bool, string, error) {
	observationData := s.buildObservationData(obs)
	fieldsToHash := s.getFieldsToHash()

	hash, err := s.hasher.ComputeHash(observationData, fieldsToHash)
	if err != nil {
		return false, "", fmt.Errorf("failed to compute hash for observation %s: %w", obs.ID, err)
	}

	key := constants.CacheKeyPrefixDedup + hash
	ttl := time.Duration(s.cfg.Dedup.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = constants.DefaultTTLSeconds * time.Second
	}

	unique, err := s.repo.SetNX(ctx, key, time.Now().Unix(), ttl)
	if err != nil {
		unique, err = s.handleRedisError(ctx, err, obs.ID)
		return unique, key, err
	}

	return unique, key, nil
}

// releaseDedupKey undoes a dedup claim when the observation could not
// be stored, so the redelivered message is not mistaken for a
// duplicate. Best effort: the key expires on its own TTL anyway.
func (s *Service) releaseDedupKey(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to release dedup key after store error",
			"error", err,
		)
	}
}

func (s *Service) buildObservationData(obs models.ObservationEnvelope) map[string]interface{} {
	return map[string]interface{}{
		"id":          obs.ID,
		"source":      obs.Source,
		"scope":       obs.Scope,
		"signal":      obs.Signal.Name,
		"value":       obs.Signal.Value.String(),
		"observed_at": obs.Signal.ObservedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *Service) getFieldsToHash() []string {
	s.fieldsMu.RLock()
	defer s.fieldsMu.RUnlock()

	fields := make([]string, len(s.fieldsToHash))
	copy(fields, s.fieldsToHash)
	return fields
}

func (s *Service) handleRedisError(ctx context.Context, err error, obsID string) (bool, error) {
	switch s.getRedisErrorHandlingStatus(ctx, err) {
	case redisErrorHandlingAccept:
		return true, nil
	case redisErrorHandlingDrop:
		return false, nil
	default:
		return false, fmt.Errorf("redis error during dedup check for observation %s: %w", obsID, err)
	}
}

func (s *Service) getRedisErrorHandlingStatus(ctx context.Context, err error) redisErrorHandlingStatus {
	switch strings.ToLower(s.cfg.Dedup.OnRedisError) {
	case constants.FallbackAccept:
		metrics.FallbackUsageTotal.WithLabelValues("intake", "accept_on_error", err.Error()).Inc()
		s.logger.WarnwCtx(ctx, "Redis error during dedup check, accepting observation (fallback: accept)",
			"error", err,
		)
		return redisErrorHandlingAccept
	case constants.FallbackDrop:
		metrics.FallbackUsageTotal.WithLabelValues("intake", "drop_on_error", err.Error()).Inc()
		s.logger.WarnwCtx(ctx, "Redis error during dedup check, dropping observation (fallback: drop)",
			"error", err,
		)
		return redisErrorHandlingDrop
	default:
		metrics.FallbackUsageTotal.WithLabelValues("intake", "fail_on_error", err.Error()).Inc()
		return redisErrorHandlingFail
	}
}

func (s *Service) recordMetricsWithStatus(duration time.Duration, status string) {
	metrics.IntakeObservationsTotal.WithLabelValues(status).Inc()
	metrics.ObserveIntakeDuration(duration, status)
}

// ApplyConfig applies an intake config update event published by the
// management service.
func (s *Service) ApplyConfig(event models.ConfigUpdateEvent) error {
	raw, ok := event.Metadata["fields_to_hash"]
	if !ok {
		return nil
	}

	values, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("fields_to_hash has unexpected type %T", raw)
	}

	fields := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			fields = append(fields, str)
		}
	}

	if len(fields) == 0 {
		return fmt.Errorf("fields_to_hash cannot be empty")
	}

	s.fieldsMu.Lock()
	s.fieldsToHash = fields
	s.fieldsMu.Unlock()

	s.logger.Infow("Updated fields to hash", "fields", fields)
	return nil
}

// GetFieldsToHash returns the current list of fields used for hashing.
func (s *Service) GetFieldsToHash() []string {
	s.fieldsMu.RLock()
	defer s.fieldsMu.RUnlock()

	fields := make([]string, len(s.fieldsToHash))
	copy(fields, s.fieldsToHash)
	return fields
}

func (s *Service) updateCacheSizeMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			size, err := s.repo.GetCacheSize(ctx, constants.CacheKeyPrefixDedup)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Debugw("Failed to get cache size for metrics",
					"error", err,
				)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			metrics.SetIntakeDedupCacheSize(size)
		case <-s.stopCacheMetrics:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) StopCacheMetricsUpdater() {
	if s.cancelMetricsCtx != nil {
		s.cancelMetricsCtx()
	}
	close(s.stopCacheMetrics)
}
