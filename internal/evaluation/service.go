package evaluation

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"driftwatch/internal/config"
	"driftwatch/internal/constants"
	"driftwatch/internal/logger"
	"driftwatch/pkg/metrics"
	"driftwatch/pkg/models"
	"driftwatch/pkg/tracing"
)

type Service struct {
	repo       Repository
	rules      []models.TriggerRule
	rulesMu    sync.RWMutex
	state      *State
	stateRepo  StateRepository
	decisions  DecisionRepository
	evalConfig config.EvaluationConfig
	logger     logger.Logger
}

func NewService(repo Repository, stateRepo StateRepository, decisions DecisionRepository, cfg config.EvaluationConfig, log logger.Logger) *Service {
	return &Service{
		repo:       repo,
		rules:      make([]models.TriggerRule, 0),
		state:      NewState(),
		stateRepo:  stateRepo,
		decisions:  decisions,
		evalConfig: cfg,
		logger:     log,
	}
}

// EvaluateSnapshot evaluates the current rule set against one snapshot
// and returns the decision. Cooldown state is NOT advanced here; the
// caller invokes CommitDecision once the decision envelope has been
// published, so a failed publish is redelivered and re-evaluated
// against unadvanced state instead of tripping its own cooldown.
func (s *Service) EvaluateSnapshot(ctx context.Context, snapshot models.SignalSnapshot) (models.TriggerDecision, error) {
	ctx, span := tracing.GetTracer("evaluator-service").Start(ctx, "evaluation.evaluate_snapshot")
	defer span.End()

	start := time.Now()
	rules := s.getActiveRules()

	if err := s.hydrateState(ctx, snapshot.Scope); err != nil {
		s.recordRunMetrics(time.Since(start), "error")
		return models.TriggerDecision{}, err
	}

	lastFired := s.state.Snapshot(snapshot.Scope)
	now := time.Now().UTC()

	decision, err := Evaluate(snapshot, rules, lastFired, now)
	if err != nil {
		s.recordRunMetrics(time.Since(start), "error")
		return models.TriggerDecision{}, err
	}

	decision.ID = uuid.New().String()

	s.recordDecisionMetrics(decision)
	s.logDecision(ctx, decision)

	s.recordRunMetrics(time.Since(start), "ok")
	return decision, nil
}

// CommitDecision advances cooldown state for the fired rules and
// records the decision in the decision log. Both writes are safe to
// repeat: SetLastFired overwrites with the same timestamp, so a
// duplicate publish cannot double-advance state.
func (s *Service) CommitDecision(ctx context.Context, decision models.TriggerDecision) error {
	if decision.ShouldTrigger {
		if err := s.persistFirings(ctx, decision); err != nil {
			return err
		}
	}

	if s.decisions != nil {
		if err := s.decisions.Insert(ctx, decision); err != nil {
			s.logger.ErrorwCtx(ctx, "Failed to record decision in decision log",
				"error", err,
				"decision_id", decision.ID,
			)
		}
	}

	return nil
}

// hydrateState pulls persisted cooldown timestamps for a scope into
// memory on first contact. A Redis failure here follows the configured
// fallback: proceed on memory only, or refuse to evaluate.
func (s *Service) hydrateState(ctx context.Context, scope string) error {
	if s.stateRepo == nil || s.state.IsHydrated(scope) {
		return nil
	}

	persisted, err := s.stateRepo.Load(ctx, scope)
	if err != nil {
		if s.fallbackSuppresses() {
			metrics.FallbackUsageTotal.WithLabelValues("evaluation", "suppress_on_state_error", "hydrate_failed").Inc()
			return err
		}
		metrics.FallbackUsageTotal.WithLabelValues("evaluation", "proceed_on_state_error", "hydrate_failed").Inc()
		s.logger.WarnwCtx(ctx, "State hydration failed, evaluating on in-memory state (fallback: proceed)",
			"scope", scope,
			"error", err,
		)
		return nil
	}

	s.state.Hydrate(scope, persisted)
	return nil
}

// persistFirings writes the new last-fired timestamps through to Redis
// before advancing the in-memory state, so a suppressed write leaves
// memory untouched and the message can be retried.
func (s *Service) persistFirings(ctx context.Context, decision models.TriggerDecision) error {
	ruleIDs := make([]string, 0, len(decision.FiredRules))
	for _, fired := range decision.FiredRules {
		ruleIDs = append(ruleIDs, fired.RuleID)
	}

	if s.stateRepo != nil {
		if err := s.stateRepo.SetLastFired(ctx, decision.Scope, ruleIDs, decision.EvaluatedAt); err != nil {
			if s.fallbackSuppresses() {
				metrics.FallbackUsageTotal.WithLabelValues("evaluation", "suppress_on_state_error", "persist_failed").Inc()
				return err
			}
			metrics.FallbackUsageTotal.WithLabelValues("evaluation", "proceed_on_state_error", "persist_failed").Inc()
			s.logger.WarnwCtx(ctx, "Failed to persist cooldown state, continuing on memory (fallback: proceed)",
				"scope", decision.Scope,
				"error", err,
			)
		}
	}

	s.state.MarkFired(decision.Scope, ruleIDs, decision.EvaluatedAt)
	return nil
}

func (s *Service) fallbackSuppresses() bool {
	return strings.EqualFold(s.evalConfig.Fallback.OnStateError, constants.FallbackSuppress)
}

func (s *Service) getActiveRules() []models.TriggerRule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()

	rules := make([]models.TriggerRule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

func (s *Service) recordRunMetrics(duration time.Duration, status string) {
	metrics.EvaluationRunsTotal.WithLabelValues(status).Inc()
	metrics.ObserveEvaluationDuration(duration, status)
}

func (s *Service) recordDecisionMetrics(decision models.TriggerDecision) {
	outcome := "not_triggered"
	if decision.ShouldTrigger {
		outcome = "triggered"
	}
	metrics.IncTriggerDecision(outcome)

	for _, fired := range decision.FiredRules {
		metrics.IncTriggerRuleFiring(fired.RuleID, fired.RuleName)
	}
	for _, skipped := range decision.SkippedRules {
		metrics.IncTriggerRuleSkip(skipped.RuleID, skipped.RuleName, skipped.Reason)
	}
}

func (s *Service) logDecision(ctx context.Context, decision models.TriggerDecision) {
	if decision.ShouldTrigger {
		s.logger.InfowCtx(ctx, "Retraining trigger fired",
			"decision_id", decision.ID,
			"scope", decision.Scope,
			"fired_rules", len(decision.FiredRules),
			"rationale", decision.Rationale,
		)
		return
	}
	s.logger.DebugwCtx(ctx, "No trigger",
		"decision_id", decision.ID,
		"scope", decision.Scope,
		"skipped_rules", len(decision.SkippedRules),
	)
}

func (s *Service) ReloadRules(ctx context.Context, skipJitter ...bool) error {
	shouldSkipJitter := len(skipJitter) > 0 && skipJitter[0]

	if err := s.applyJitter(ctx, shouldSkipJitter); err != nil {
		return err
	}

	rules, err := s.loadRules(ctx)
	if err != nil {
		return err
	}

	s.updateRules(ctx, rules)
	return nil
}

func (s *Service) applyJitter(ctx context.Context, skipJitter bool) error {
	if skipJitter || s.evalConfig.Reload.JitterMaxMilliseconds == 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(s.evalConfig.Reload.JitterMaxMilliseconds)) * time.Millisecond
	s.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) loadRules(ctx context.Context) ([]models.TriggerRule, error) {
	s.logger.DebugwCtx(ctx, "Loading rules from database")
	rules, err := s.repo.GetActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Service) updateRules(ctx context.Context, rules []models.TriggerRule) {
	s.rulesMu.Lock()
	s.rules = rules
	s.rulesMu.Unlock()

	metrics.SetEvaluationActiveRules(len(rules))
	s.logger.InfowCtx(ctx, "Successfully reloaded rules",
		"rules_count", len(rules),
	)
}

func (s *Service) StartReloader(ctx context.Context) error {
	interval := time.Duration(s.evalConfig.Reload.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.ReloadRules(ctx); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to reload rules",
			"error", err,
		)
	}

	for {
		select {
		case <-ticker.C:
			if err := s.ReloadRules(ctx); err != nil {
				s.logger.ErrorwCtx(ctx, "Failed to reload rules",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
