package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"driftwatch/internal/constants"
	"driftwatch/pkg/models"
)

type Repository interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	GetCacheSize(ctx context.Context, prefix string) (int, error)
	StoreSignal(ctx context.Context, scope string, signal models.Signal, ttl time.Duration) error
	GetSnapshot(ctx context.Context, scope string) (models.SignalSnapshot, error)
}

type RedisRepository struct {
	client *redis.Client
}

func NewRepository(client *redis.Client) Repository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	success, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX failed: %w", err)
	}
	return success, nil
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) GetCacheSize(ctx context.Context, prefix string) (int, error) {
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	count := 0
	for iter.Next(ctx) {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	return count, nil
}

func snapshotKey(scope string) string {
	return constants.CacheKeyPrefixSnapshot + scope
}

const storeSignalRetries = 5

// StoreSignal upserts the latest value for one signal in the scope's
// snapshot hash. Observations can arrive out of order across
// partitions, so the stored value only changes when the incoming
// observation is at least as recent; the compare-and-set runs under
// WATCH and retries on concurrent writers. The whole hash shares one
// TTL, refreshed on write.
func (r *RedisRepository) StoreSignal(ctx context.Context, scope string, signal models.Signal, ttl time.Duration) error {
	raw, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to marshal signal %s: %w", signal.Name, err)
	}

	key := snapshotKey(scope)

	txn := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, signal.Name).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var existing models.Signal
			if unmarshalErr := json.Unmarshal([]byte(current), &existing); unmarshalErr == nil &&
				existing.ObservedAt.After(signal.ObservedAt) {
				// Stale observation; the stored value is newer.
				return nil
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, signal.Name, raw)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < storeSignalRetries; attempt++ {
		err := r.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return fmt.Errorf("redis store failed for scope %s: %w", scope, err)
	}

	return fmt.Errorf("store retries exhausted for scope %s signal %s", scope, signal.Name)
}

func (r *RedisRepository) GetSnapshot(ctx context.Context, scope string) (models.SignalSnapshot, error) {
	entries, err := r.client.HGetAll(ctx, snapshotKey(scope)).Result()
	if err != nil {
		return models.SignalSnapshot{}, fmt.Errorf("redis HGETALL failed for scope %s: %w", scope, err)
	}

	snapshot := models.SignalSnapshot{
		Scope:       scope,
		Signals:     make(map[string]models.Signal, len(entries)),
		GeneratedAt: time.Now().UTC(),
	}

	for name, raw := range entries {
		var signal models.Signal
		if err := json.Unmarshal([]byte(raw), &signal); err != nil {
			return models.SignalSnapshot{}, fmt.Errorf("malformed signal %s in scope %s: %w", name, scope, err)
		}
		snapshot.Signals[name] = signal
	}

	return snapshot, nil
}
