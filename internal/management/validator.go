package management

import (
	"fmt"

	"driftwatch/pkg/models"
)

func validateThreshold(operator string, threshold ThresholdPayload) error {
	switch models.ValueKind(threshold.Kind) {
	case models.ValueKindNumber:
		if threshold.Number == nil {
			return fmt.Errorf("threshold.number is required for kind 'number'")
		}
	case models.ValueKindBool:
		if threshold.Bool == nil {
			return fmt.Errorf("threshold.bool is required for kind 'bool'")
		}
		if models.Operator(operator) != models.OperatorEqual {
			return fmt.Errorf("boolean thresholds only support the eq operator, got %q", operator)
		}
	default:
		return fmt.Errorf("invalid threshold kind: %s. Allowed: number, bool", threshold.Kind)
	}
	return nil
}

func ValidateTriggerRule(req CreateTriggerRuleRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.Signal == "" {
		return fmt.Errorf("signal is required")
	}
	if !models.Operator(req.Operator).Valid() {
		return fmt.Errorf("invalid operator: %s. Allowed: gt, lt, gte, lte, eq", req.Operator)
	}
	if err := validateThreshold(req.Operator, req.Threshold); err != nil {
		return err
	}
	if req.CooldownSeconds < 0 {
		return fmt.Errorf("cooldown_seconds must be non-negative")
	}
	return nil
}

func ValidateUpdateTriggerRule(req UpdateTriggerRuleRequest, current models.TriggerRule) error {
	operator := string(current.Operator)
	if req.Operator != nil {
		operator = *req.Operator
		if !models.Operator(operator).Valid() {
			return fmt.Errorf("invalid operator: %s. Allowed: gt, lt, gte, lte, eq", operator)
		}
	}

	if req.Threshold != nil {
		if err := validateThreshold(operator, *req.Threshold); err != nil {
			return err
		}
	} else if req.Operator != nil {
		// Operator changed while keeping the stored threshold.
		if current.Threshold.Kind == models.ValueKindBool && models.Operator(operator) != models.OperatorEqual {
			return fmt.Errorf("boolean thresholds only support the eq operator, got %q", operator)
		}
	}

	if req.Name != nil && *req.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if req.Signal != nil && *req.Signal == "" {
		return fmt.Errorf("signal cannot be empty")
	}
	if req.CooldownSeconds != nil && *req.CooldownSeconds < 0 {
		return fmt.Errorf("cooldown_seconds must be non-negative")
	}
	return nil
}

var validHashAlgorithms = map[string]bool{
	"md5":    true,
	"sha256": true,
}

var validOnRedisError = map[string]bool{
	"accept": true,
	"drop":   true,
	"fail":   true,
}

func ValidateIntakeConfig(req UpdateIntakeConfigRequest) error {
	if req.HashAlgorithm != nil {
		if !validHashAlgorithms[*req.HashAlgorithm] {
			return fmt.Errorf("invalid hash_algorithm: %s. Allowed: md5, sha256", *req.HashAlgorithm)
		}
	}
	if req.OnRedisError != nil {
		if !validOnRedisError[*req.OnRedisError] {
			return fmt.Errorf("invalid on_redis_error: %s. Allowed: accept, drop, fail", *req.OnRedisError)
		}
	}
	if req.TTLSeconds != nil && *req.TTLSeconds <= 0 {
		return fmt.Errorf("ttl_seconds must be positive")
	}
	if req.FieldsToHash != nil {
		if len(*req.FieldsToHash) == 0 {
			return fmt.Errorf("fields_to_hash cannot be empty")
		}
	}
	return nil
}
