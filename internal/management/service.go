package management

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"driftwatch/internal/config"
	"driftwatch/internal/constants"
	pkgerrors "driftwatch/pkg/errors"
	"driftwatch/pkg/models"
)

type service struct {
	repo                Repository
	decisionHistoryRepo DecisionHistoryRepository
	versioningRepo      VersioningRepository
	configEventProducer *ConfigEventProducer
	auditEnabled        bool
	intakeConfig        *IntakeConfig
	intakeConfigMu      sync.RWMutex
}

type ServiceOption func(*service)

func WithVersioning(versioningRepo VersioningRepository) ServiceOption {
	return func(s *service) {
		s.versioningRepo = versioningRepo
		s.auditEnabled = true
	}
}

func WithDecisionHistory(decisionHistoryRepo DecisionHistoryRepository) ServiceOption {
	return func(s *service) {
		s.decisionHistoryRepo = decisionHistoryRepo
	}
}

func WithConfigEvents(configEventProducer *ConfigEventProducer) ServiceOption {
	return func(s *service) {
		s.configEventProducer = configEventProducer
	}
}

func WithIntakeConfig(intakeCfg config.IntakeConfig) ServiceOption {
	return func(s *service) {
		fieldsToHash := intakeCfg.Dedup.FieldsToHash
		if len(fieldsToHash) == 0 {
			fieldsToHash = []string{"scope", "signal", "value", "observed_at"}
		}

		s.intakeConfig = &IntakeConfig{
			HashAlgorithm: intakeCfg.Dedup.HashAlgorithm,
			TTLSeconds:    intakeCfg.Dedup.TTLSeconds,
			OnRedisError:  intakeCfg.Dedup.OnRedisError,
			FieldsToHash:  fieldsToHash,
		}
	}
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:         repo,
		auditEnabled: false,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.versioningRepo != nil {
		s.auditEnabled = true
	}

	return s
}

func (s *service) CreateTriggerRule(ctx context.Context, req CreateTriggerRuleRequest) (*models.TriggerRule, error) {
	if err := ValidateTriggerRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	rule := &models.TriggerRule{
		Name:            req.Name,
		Signal:          req.Signal,
		Operator:        models.Operator(req.Operator),
		Threshold:       req.Threshold.ToValue(),
		CooldownSeconds: req.CooldownSeconds,
		Priority:        req.Priority,
		Enabled:         getEnabledValue(req.Enabled),
	}

	if err := s.repo.CreateTriggerRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.createVersionAndAudit(ctx, rule, "create", nil)
	s.publishConfigEvent(ctx, models.ActionCreate, rule.ID)

	return s.copyTriggerRule(rule), nil
}

func (s *service) ListTriggerRules(ctx context.Context) ([]models.TriggerRule, error) {
	rules, err := s.repo.ListTriggerRules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return rules, nil
}

func (s *service) GetTriggerRule(ctx context.Context, id string) (*models.TriggerRule, error) {
	rule, err := s.repo.GetTriggerRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return s.copyTriggerRule(rule), nil
}

func (s *service) UpdateTriggerRule(ctx context.Context, id string, req UpdateTriggerRuleRequest) (*models.TriggerRule, error) {
	rule, err := s.repo.GetTriggerRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	if err := ValidateUpdateTriggerRule(req, *rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	oldValue, _ := s.ruleToMap(rule)
	s.updateTriggerRuleFields(rule, req)

	if err := s.repo.UpdateTriggerRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.createVersionAndAudit(ctx, rule, "update", oldValue)
	s.publishConfigEvent(ctx, models.ActionUpdate, rule.ID)

	return s.copyTriggerRule(rule), nil
}

func (s *service) DeleteTriggerRule(ctx context.Context, id string) error {
	rule, err := s.repo.GetTriggerRule(ctx, id)
	if err != nil {
		return s.handleNotFoundError(err, id)
	}
	if rule == nil {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}

	oldValue, _ := s.ruleToMap(rule)

	if err := s.repo.DeleteTriggerRule(ctx, id); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if s.auditEnabled && s.versioningRepo != nil {
		auditLog := s.buildAuditLog(id, "trigger", "delete", oldValue, nil, getChangedBy(ctx))
		_ = s.versioningRepo.CreateAuditLog(ctx, auditLog)
	}

	s.publishConfigEvent(ctx, models.ActionDelete, id)
	return nil
}

func (s *service) GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error) {
	if s.versioningRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "versioning not enabled")
	}
	versions, err := s.versioningRepo.GetVersions(ctx, ruleID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return versions, nil
}

func (s *service) GetAuditLogs(ctx context.Context, ruleID *string, ruleType string, limit int) ([]AuditLog, error) {
	if s.versioningRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "audit logging not enabled")
	}
	if limit <= 0 || limit > constants.MaxLimit {
		limit = constants.DefaultLimit
	}
	logs, err := s.versioningRepo.GetAuditLogs(ctx, ruleID, ruleType, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return logs, nil
}

func (s *service) ListDecisions(ctx context.Context, filter DecisionHistoryFilter) ([]models.TriggerDecision, error) {
	if s.decisionHistoryRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "decision history not configured")
	}

	if filter.Limit <= 0 || filter.Limit > constants.MaxLimit {
		filter.Limit = constants.DefaultLimit
	}

	decisions, err := s.decisionHistoryRepo.ListDecisions(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return decisions, nil
}

func (s *service) GetDecision(ctx context.Context, id string) (*models.TriggerDecision, error) {
	if s.decisionHistoryRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "decision history not configured")
	}

	decision, err := s.decisionHistoryRepo.GetDecision(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	if decision == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return decision, nil
}

func (s *service) GetIntakeConfig(ctx context.Context) (*IntakeConfig, error) {
	s.intakeConfigMu.RLock()
	defer s.intakeConfigMu.RUnlock()

	if s.intakeConfig == nil {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", "intake config not initialized")
	}

	return s.copyIntakeConfig(), nil
}

func (s *service) UpdateIntakeConfig(ctx context.Context, req UpdateIntakeConfigRequest) (*IntakeConfig, error) {
	if err := ValidateIntakeConfig(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation)
	}

	s.intakeConfigMu.Lock()
	defer s.intakeConfigMu.Unlock()

	if s.intakeConfig == nil {
		s.intakeConfig = &IntakeConfig{
			HashAlgorithm: constants.HashAlgorithmMD5,
			TTLSeconds:    constants.DefaultTTLSeconds,
			OnRedisError:  constants.FallbackFail,
			FieldsToHash:  []string{"scope", "signal", "value", "observed_at"},
		}
	}

	if req.HashAlgorithm != nil {
		s.intakeConfig.HashAlgorithm = *req.HashAlgorithm
	}
	if req.TTLSeconds != nil {
		s.intakeConfig.TTLSeconds = *req.TTLSeconds
	}
	if req.OnRedisError != nil {
		s.intakeConfig.OnRedisError = *req.OnRedisError
	}
	if req.FieldsToHash != nil {
		s.intakeConfig.FieldsToHash = *req.FieldsToHash
	}

	if s.configEventProducer != nil {
		eventMetadata := map[string]interface{}{
			"fields_to_hash": s.intakeConfig.FieldsToHash,
			"hash_algorithm": s.intakeConfig.HashAlgorithm,
			"ttl_seconds":    s.intakeConfig.TTLSeconds,
		}

		_ = s.configEventProducer.PublishIntakeConfigEvent(ctx, models.ActionUpdate, getChangedBy(ctx), eventMetadata)
	}

	return s.copyIntakeConfig(), nil
}

func (s *service) copyIntakeConfig() *IntakeConfig {
	cfg := &IntakeConfig{
		HashAlgorithm: s.intakeConfig.HashAlgorithm,
		TTLSeconds:    s.intakeConfig.TTLSeconds,
		OnRedisError:  s.intakeConfig.OnRedisError,
		FieldsToHash:  make([]string, len(s.intakeConfig.FieldsToHash)),
	}
	copy(cfg.FieldsToHash, s.intakeConfig.FieldsToHash)
	return cfg
}

func (s *service) handleNotFoundError(err error, id string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "not found") {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
}

func (s *service) createVersionAndAudit(ctx context.Context, rule *models.TriggerRule, action string, oldValue map[string]interface{}) {
	if !s.auditEnabled || s.versioningRepo == nil {
		return
	}

	ruleJSON, err := ruleToJSON(rule)
	if err != nil {
		return
	}

	version := s.buildVersion(ctx, rule, ruleJSON)
	if err := s.versioningRepo.CreateVersion(ctx, version); err != nil {
		return
	}

	newValue, err := s.ruleToMap(rule)
	if err != nil {
		return
	}

	auditLog := s.buildAuditLog(rule.ID, "trigger", action, oldValue, newValue, getChangedBy(ctx))
	_ = s.versioningRepo.CreateAuditLog(ctx, auditLog)
}

func (s *service) buildVersion(ctx context.Context, rule *models.TriggerRule, ruleJSON string) *RuleVersion {
	version := 1
	if s.versioningRepo != nil {
		if nextVersion, err := s.versioningRepo.GetNextVersion(ctx, rule.ID); err == nil {
			version = nextVersion
		}
	}

	return &RuleVersion{
		RuleID:    rule.ID,
		RuleType:  "trigger",
		RuleData:  ruleJSON,
		Version:   version,
		ChangedBy: getChangedBy(ctx),
	}
}

func (s *service) buildAuditLog(ruleID, ruleType, action string, oldValue, newValue map[string]interface{}, changedBy string) *AuditLog {
	return &AuditLog{
		RuleID:    &ruleID,
		RuleType:  ruleType,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedBy: changedBy,
	}
}

func (s *service) ruleToMap(rule *models.TriggerRule) (map[string]interface{}, error) {
	ruleData, err := json.Marshal(rule)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(ruleData, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) publishConfigEvent(ctx context.Context, action, ruleID string) {
	if s.configEventProducer != nil {
		_ = s.configEventProducer.PublishTriggerRuleEvent(ctx, action, ruleID, getChangedBy(ctx))
	}
}

func (s *service) updateTriggerRuleFields(rule *models.TriggerRule, req UpdateTriggerRuleRequest) {
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Signal != nil {
		rule.Signal = *req.Signal
	}
	if req.Operator != nil {
		rule.Operator = models.Operator(*req.Operator)
	}
	if req.Threshold != nil {
		rule.Threshold = req.Threshold.ToValue()
	}
	if req.CooldownSeconds != nil {
		rule.CooldownSeconds = *req.CooldownSeconds
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
}

func (s *service) copyTriggerRule(rule *models.TriggerRule) *models.TriggerRule {
	copied := *rule
	return &copied
}

func getEnabledValue(reqEnabled *bool) bool {
	if reqEnabled == nil {
		return true
	}
	return *reqEnabled
}

func getChangedBy(ctx context.Context) string {
	if userID := ctx.Value("user_id"); userID != nil {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return "system"
}
