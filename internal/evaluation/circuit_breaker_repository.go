package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"driftwatch/internal/config"
	"driftwatch/pkg/circuitbreaker"
)

// CircuitBreakerStateRepository shields the evaluator from a failing
// Redis. Once the breaker opens, state reads and writes fail fast and
// the service's configured fallback takes over.
type CircuitBreakerStateRepository struct {
	repo StateRepository
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerStateRepository(repo StateRepository, cfg config.CircuitBreakerConfig) *CircuitBreakerStateRepository {
	if !cfg.Enabled {
		return &CircuitBreakerStateRepository{
			repo: repo,
			cb:   nil,
		}
	}

	cbConfig := circuitbreaker.DefaultConfig("redis-trigger-state")
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinRequests) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		}
	}

	return &CircuitBreakerStateRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(cbConfig),
	}
}

func (r *CircuitBreakerStateRepository) Load(ctx context.Context, scope string) (map[string]time.Time, error) {
	if r.cb == nil {
		return r.repo.Load(ctx, scope)
	}

	result, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return r.repo.Load(ctx, scope)
	})

	r.cb.RecordRequest(err == nil)

	if err != nil {
		if r.cb.IsOpen() {
			return nil, fmt.Errorf("circuit breaker is open for redis-trigger-state: %w", err)
		}
		return nil, err
	}

	state, ok := result.(map[string]time.Time)
	if !ok {
		return nil, fmt.Errorf("repository returned invalid result type")
	}

	return state, nil
}

func (r *CircuitBreakerStateRepository) SetLastFired(ctx context.Context, scope string, ruleIDs []string, firedAt time.Time) error {
	if r.cb == nil {
		return r.repo.SetLastFired(ctx, scope, ruleIDs, firedAt)
	}

	_, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, r.repo.SetLastFired(ctx, scope, ruleIDs, firedAt)
	})

	r.cb.RecordRequest(err == nil)

	if err != nil {
		if r.cb.IsOpen() {
			return fmt.Errorf("circuit breaker is open for redis-trigger-state: %w", err)
		}
		return err
	}

	return nil
}

func (r *CircuitBreakerStateRepository) State() string {
	if r.cb == nil {
		return "disabled"
	}
	return r.cb.State().String()
}

func (r *CircuitBreakerStateRepository) IsOpen() bool {
	if r.cb == nil {
		return false
	}
	return r.cb.IsOpen()
}
