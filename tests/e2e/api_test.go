package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"driftwatch/internal/management"
	"driftwatch/pkg/models"
)

const (
	managementServiceURL = "http://localhost:8084"
)

func TestManagementServiceHealth(t *testing.T) {
	url := fmt.Sprintf("%s/health", managementServiceURL)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&health)
	require.NoError(t, err)
	assert.NotNil(t, health["status"])
}

func TestTriggerRulesCRUD(t *testing.T) {
	createReq := management.CreateTriggerRuleRequest{
		Name:            "test_rule",
		Signal:          "accuracy",
		Operator:        "lt",
		Threshold:       management.ThresholdPayload{Kind: "number", Number: float64Ptr(0.9)},
		CooldownSeconds: 3600,
		Priority:        10,
		Enabled:         boolPtr(true),
	}

	ruleID := createTriggerRule(t, createReq)
	defer deleteTriggerRule(t, ruleID)

	rule := getTriggerRule(t, ruleID)
	assert.Equal(t, createReq.Name, rule.Name)
	assert.Equal(t, createReq.Signal, rule.Signal)
	assert.Equal(t, models.OperatorLessThan, rule.Operator)
	assert.Equal(t, models.NumberValue(0.9), rule.Threshold)
	assert.Equal(t, createReq.Priority, rule.Priority)
	assert.Equal(t, *createReq.Enabled, rule.Enabled)

	rules := listTriggerRules(t)
	assert.GreaterOrEqual(t, len(rules), 1)
	found := false
	for _, r := range rules {
		if r.ID == ruleID {
			found = true
			break
		}
	}
	assert.True(t, found, "created rule should be in the list")

	updateReq := management.UpdateTriggerRuleRequest{
		Name:      stringPtr("updated_rule"),
		Threshold: &management.ThresholdPayload{Kind: "number", Number: float64Ptr(0.85)},
		Priority:  intPtr(20),
		Enabled:   boolPtr(false),
	}
	updatedRule := updateTriggerRule(t, ruleID, updateReq)
	assert.Equal(t, *updateReq.Name, updatedRule.Name)
	assert.Equal(t, models.NumberValue(0.85), updatedRule.Threshold)
	assert.Equal(t, *updateReq.Priority, updatedRule.Priority)
	assert.Equal(t, *updateReq.Enabled, updatedRule.Enabled)

	versions := getRuleVersions(t, ruleID)
	assert.GreaterOrEqual(t, len(versions), 1)

	auditLogs := getRuleAuditLogs(t, ruleID)
	assert.GreaterOrEqual(t, len(auditLogs), 0)
}

func TestIntakeConfig(t *testing.T) {
	updateReq := management.UpdateIntakeConfigRequest{
		HashAlgorithm: stringPtr("sha256"),
		TTLSeconds:    intPtr(3600),
		OnRedisError:  stringPtr("accept"),
		FieldsToHash:  &[]string{"scope", "signal", "value", "observed_at"},
	}
	updatedConfig := updateIntakeConfig(t, updateReq)
	assert.Equal(t, *updateReq.HashAlgorithm, updatedConfig.HashAlgorithm)
	assert.Equal(t, *updateReq.TTLSeconds, updatedConfig.TTLSeconds)
	assert.Equal(t, *updateReq.OnRedisError, updatedConfig.OnRedisError)
	assert.Equal(t, *updateReq.FieldsToHash, updatedConfig.FieldsToHash)

	config := getIntakeConfig(t)
	if config.HashAlgorithm != "" {
		assert.Equal(t, *updateReq.HashAlgorithm, config.HashAlgorithm)
		assert.Equal(t, *updateReq.TTLSeconds, config.TTLSeconds)
	}
}

func TestAuditLogs(t *testing.T) {
	createReq := management.CreateTriggerRuleRequest{
		Name:      "audit_test_rule",
		Signal:    "accuracy",
		Operator:  "lt",
		Threshold: management.ThresholdPayload{Kind: "number", Number: float64Ptr(0.9)},
		Priority:  10,
		Enabled:   boolPtr(true),
	}
	ruleID := createTriggerRule(t, createReq)
	defer deleteTriggerRule(t, ruleID)

	updateReq := management.UpdateTriggerRuleRequest{
		Name: stringPtr("updated_audit_test_rule"),
	}
	_ = updateTriggerRule(t, ruleID, updateReq)

	time.Sleep(1 * time.Second)

	auditLogs := getRuleAuditLogs(t, ruleID)
	assert.GreaterOrEqual(t, len(auditLogs), 1)

	allLogs := getAllAuditLogs(t)
	assert.GreaterOrEqual(t, len(allLogs), 1)

	filteredLogs := getAllAuditLogsWithFilter(t, "", "trigger")
	assert.GreaterOrEqual(t, len(filteredLogs), 1)
}

func TestDecisionHistoryAPI(t *testing.T) {
	url := fmt.Sprintf("%s/api/v1/decisions?limit=10", managementServiceURL)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decisions []models.TriggerDecision
	err = json.NewDecoder(resp.Body).Decode(&decisions)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(decisions), 10)
}

func TestValidationErrors(t *testing.T) {
	invalidReq := management.CreateTriggerRuleRequest{
		Name: "",
	}
	resp := createTriggerRuleWithError(t, invalidReq)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	invalidOperatorReq := management.CreateTriggerRuleRequest{
		Name:      "bad_operator_rule",
		Signal:    "accuracy",
		Operator:  "contains",
		Threshold: management.ThresholdPayload{Kind: "number", Number: float64Ptr(0.9)},
	}
	resp = createTriggerRuleWithError(t, invalidOperatorReq)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func createTriggerRule(t *testing.T, req management.CreateTriggerRuleRequest) string {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules/triggers", managementServiceURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rule models.TriggerRule
	err = json.NewDecoder(resp.Body).Decode(&rule)
	require.NoError(t, err)

	return rule.ID
}

func getTriggerRule(t *testing.T, id string) models.TriggerRule {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/rules/triggers/%s", managementServiceURL, id))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rule models.TriggerRule
	err = json.NewDecoder(resp.Body).Decode(&rule)
	require.NoError(t, err)

	return rule
}

func listTriggerRules(t *testing.T) []models.TriggerRule {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/rules/triggers", managementServiceURL))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rules []models.TriggerRule
	err = json.NewDecoder(resp.Body).Decode(&rules)
	require.NoError(t, err)

	return rules
}

func updateTriggerRule(t *testing.T, id string, req management.UpdateTriggerRuleRequest) models.TriggerRule {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(
		"PUT",
		fmt.Sprintf("%s/api/v1/rules/triggers/%s", managementServiceURL, id),
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rule models.TriggerRule
	err = json.NewDecoder(resp.Body).Decode(&rule)
	require.NoError(t, err)

	return rule
}

func deleteTriggerRule(t *testing.T, id string) {
	t.Helper()

	httpReq, err := http.NewRequest(
		"DELETE",
		fmt.Sprintf("%s/api/v1/rules/triggers/%s", managementServiceURL, id),
		nil,
	)
	require.NoError(t, err)

	client := &http.Client{}
	resp, err := client.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func getRuleVersions(t *testing.T, id string) []management.RuleVersion {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/rules/triggers/%s/versions", managementServiceURL, id))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var versions []management.RuleVersion
	err = json.NewDecoder(resp.Body).Decode(&versions)
	require.NoError(t, err)

	return versions
}

func getRuleAuditLogs(t *testing.T, id string) []management.AuditLog {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/rules/triggers/%s/audit", managementServiceURL, id))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs []management.AuditLog
	err = json.NewDecoder(resp.Body).Decode(&logs)
	require.NoError(t, err)

	return logs
}

func getAllAuditLogs(t *testing.T) []management.AuditLog {
	t.Helper()
	return getAllAuditLogsWithFilter(t, "", "")
}

func getAllAuditLogsWithFilter(t *testing.T, ruleID, ruleType string) []management.AuditLog {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/audit/logs", managementServiceURL)
	if ruleID != "" {
		url += fmt.Sprintf("?rule_id=%s", ruleID)
	}
	if ruleType != "" {
		if strings.Contains(url, "?") {
			url += "&"
		} else {
			url += "?"
		}
		url += fmt.Sprintf("rule_type=%s", ruleType)
	}

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs []management.AuditLog
	err = json.NewDecoder(resp.Body).Decode(&logs)
	require.NoError(t, err)

	return logs
}

func getIntakeConfig(t *testing.T) management.IntakeConfig {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/config/intake", managementServiceURL))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return management.IntakeConfig{}
	}

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var config management.IntakeConfig
	err = json.NewDecoder(resp.Body).Decode(&config)
	require.NoError(t, err)

	return config
}

func updateIntakeConfig(t *testing.T, req management.UpdateIntakeConfigRequest) management.IntakeConfig {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(
		"PUT",
		fmt.Sprintf("%s/api/v1/config/intake", managementServiceURL),
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var config management.IntakeConfig
	err = json.NewDecoder(resp.Body).Decode(&config)
	require.NoError(t, err)

	return config
}

func createTriggerRuleWithError(t *testing.T, req management.CreateTriggerRuleRequest) *http.Response {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules/triggers", managementServiceURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)

	return resp
}

func boolPtr(b bool) *bool {
	return &b
}

func stringPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func float64Ptr(f float64) *float64 {
	return &f
}
