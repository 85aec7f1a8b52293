package evaluation

import (
	"fmt"
	"strings"
	"time"

	"driftwatch/pkg/models"
)

// Evaluate runs every rule against the snapshot and returns the
// decision. It is a pure function of its inputs: neither the snapshot
// nor lastFired is mutated, and two calls with the same inputs produce
// the same decision.
//
// A rule whose signal is absent from the snapshot is skipped, not an
// error. A rule whose predicate holds but whose cooldown window is
// still open is recorded as skipped with a cooldown reason. The
// decision triggers when at least one rule fires.
func Evaluate(snapshot models.SignalSnapshot, rules []models.TriggerRule, lastFired map[string]time.Time, now time.Time) (models.TriggerDecision, error) {
	decision := models.TriggerDecision{
		Scope:        snapshot.Scope,
		FiredRules:   make([]models.FiredRule, 0),
		SkippedRules: make([]models.SkippedRule, 0),
		EvaluatedAt:  now,
	}

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		signal, ok := snapshot.Get(rule.Signal)
		if !ok {
			decision.SkippedRules = append(decision.SkippedRules, models.SkippedRule{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Signal:   rule.Signal,
				Reason:   models.SkipReasonMissingSignal,
			})
			continue
		}

		match, err := matches(rule, signal.Value)
		if err != nil {
			return models.TriggerDecision{}, err
		}

		if !match {
			continue
		}

		if fired, wasFired := lastFired[rule.ID]; wasFired && now.Sub(fired) < rule.Cooldown() {
			decision.SkippedRules = append(decision.SkippedRules, models.SkippedRule{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Signal:   rule.Signal,
				Reason:   models.SkipReasonCooldownActive,
			})
			continue
		}

		decision.FiredRules = append(decision.FiredRules, models.FiredRule{
			RuleID:    rule.ID,
			RuleName:  rule.Name,
			Signal:    rule.Signal,
			Operator:  rule.Operator,
			Threshold: rule.Threshold,
			Observed:  signal.Value,
			Priority:  rule.Priority,
		})
	}

	decision.ShouldTrigger = len(decision.FiredRules) > 0
	decision.Rationale = buildRationale(decision)

	return decision, nil
}

func buildRationale(decision models.TriggerDecision) string {
	var parts []string

	for _, fired := range decision.FiredRules {
		parts = append(parts, fmt.Sprintf("rule '%s' fired: %s %s %s, observed %s",
			fired.RuleName, fired.Signal, fired.Operator, fired.Threshold.String(), fired.Observed.String()))
	}

	for _, skipped := range decision.SkippedRules {
		switch skipped.Reason {
		case models.SkipReasonMissingSignal:
			parts = append(parts, fmt.Sprintf("rule '%s' skipped: signal '%s' not in snapshot",
				skipped.RuleName, skipped.Signal))
		case models.SkipReasonCooldownActive:
			parts = append(parts, fmt.Sprintf("rule '%s' skipped: cooldown active",
				skipped.RuleName))
		default:
			parts = append(parts, fmt.Sprintf("rule '%s' skipped: %s",
				skipped.RuleName, skipped.Reason))
		}
	}

	if len(parts) == 0 {
		return "no rules matched"
	}

	return strings.Join(parts, "; ")
}
