package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"driftwatch/internal/constants"
)

// StateRepository persists last-fired timestamps so cooldowns survive
// restarts and are shared across evaluator replicas.
type StateRepository interface {
	Load(ctx context.Context, scope string) (map[string]time.Time, error)
	SetLastFired(ctx context.Context, scope string, ruleIDs []string, firedAt time.Time) error
}

type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewStateRepository builds a Redis-backed state store. The ttl bounds
// how long an idle scope's hash lives; it must exceed the longest
// configured cooldown or state is lost mid-window. Zero selects the
// default.
func NewStateRepository(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStateRepository {
	if keyPrefix == "" {
		keyPrefix = constants.CacheKeyPrefixState
	}
	if ttl <= 0 {
		ttl = constants.DefaultStateTTL
	}
	return &RedisStateRepository{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisStateRepository) key(scope string) string {
	return r.keyPrefix + scope
}

func (r *RedisStateRepository) Load(ctx context.Context, scope string) (map[string]time.Time, error) {
	entries, err := r.client.HGetAll(ctx, r.key(scope)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL failed for scope %s: %w", scope, err)
	}

	state := make(map[string]time.Time, len(entries))
	for ruleID, raw := range entries {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("malformed last-fired timestamp for rule %s: %w", ruleID, err)
		}
		state[ruleID] = t
	}

	return state, nil
}

func (r *RedisStateRepository) SetLastFired(ctx context.Context, scope string, ruleIDs []string, firedAt time.Time) error {
	if len(ruleIDs) == 0 {
		return nil
	}

	fields := make([]interface{}, 0, len(ruleIDs)*2)
	for _, ruleID := range ruleIDs {
		fields = append(fields, ruleID, firedAt.Format(time.RFC3339Nano))
	}

	key := r.key(scope)
	if err := r.client.HSet(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("redis HSET failed for scope %s: %w", scope, err)
	}

	// Refresh the hash TTL so idle scopes eventually expire instead of
	// accumulating entries for long-deleted rules.
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis EXPIRE failed for scope %s: %w", scope, err)
	}

	return nil
}
