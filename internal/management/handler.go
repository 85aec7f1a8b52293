package management

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"driftwatch/internal/constants"
	"driftwatch/internal/logger"
	"driftwatch/pkg/errors"
)

type BaseHandler struct {
	Service Service
	Logger  logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		rules := v1.Group("/rules/triggers")
		{
			rules.GET("", h.ListRules)
			rules.POST("", h.CreateRule)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id", h.UpdateRule)
			rules.DELETE("/:id", h.DeleteRule)
			rules.GET("/:id/versions", h.GetRuleVersions)
			rules.GET("/:id/audit", h.GetRuleAuditLogs)
		}

		audit := v1.Group("/audit")
		{
			audit.GET("/logs", h.GetAuditLogs)
		}
	}
}

// ListRules godoc
// @Summary      List all trigger rules
// @Description  Get a list of all retraining trigger rules
// @Tags         trigger-rules
// @Accept       json
// @Produce      json
// @Success      200  {array}    models.TriggerRule
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/triggers [get]
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.Service.ListTriggerRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateRule godoc
// @Summary      Create a new trigger rule
// @Description  Create a new retraining trigger rule with the provided data
// @Tags         trigger-rules
// @Accept       json
// @Produce      json
// @Param        rule  body       CreateTriggerRuleRequest  true  "Trigger rule data"
// @Success      201   {object}   models.TriggerRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      409   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/triggers [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateTriggerRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.CreateTriggerRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetRule godoc
// @Summary      Get a trigger rule by ID
// @Description  Get a specific trigger rule by its ID
// @Tags         trigger-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}   models.TriggerRule
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/triggers/{id} [get]
func (h *Handler) GetRule(c *gin.Context) {
	id := c.Param("id")
	rule, err := h.Service.GetTriggerRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      Update a trigger rule
// @Description  Update an existing trigger rule by ID
// @Tags         trigger-rules
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "Rule ID"
// @Param        rule  body       UpdateTriggerRuleRequest  true  "Updated rule data"
// @Success      200   {object}   models.TriggerRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/triggers/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	var req UpdateTriggerRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.UpdateTriggerRule(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule godoc
// @Summary      Delete a trigger rule
// @Description  Delete a trigger rule by ID
// @Tags         trigger-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/triggers/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	err := h.Service.DeleteTriggerRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRuleVersions godoc
// @Summary      Get rule version history
// @Description  Get version history for a specific trigger rule
// @Tags         trigger-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {array}   RuleVersion
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/triggers/{id}/versions [get]
func (h *Handler) GetRuleVersions(c *gin.Context) {
	id := c.Param("id")
	versions, err := h.Service.GetRuleVersions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

// GetRuleAuditLogs godoc
// @Summary      Get audit logs for a rule
// @Description  Get audit logs for a specific trigger rule
// @Tags         trigger-rules
// @Accept       json
// @Produce      json
// @Param        id     path      string  true   "Rule ID"
// @Param        limit  query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200    {array}   AuditLog
// @Failure      404    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /rules/triggers/{id}/audit [get]
func (h *Handler) GetRuleAuditLogs(c *gin.Context) {
	id := c.Param("id")
	limit := parseLimit(c.Query("limit"))

	logs, err := h.Service.GetAuditLogs(c.Request.Context(), &id, "trigger", limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetAuditLogs godoc
// @Summary      Get audit logs
// @Description  Get audit logs with optional filtering by rule ID and rule type
// @Tags         audit
// @Accept       json
// @Produce      json
// @Param        rule_id    query     string  false  "Filter by rule ID"
// @Param        rule_type  query     string  false  "Filter by rule type"
// @Param        limit      query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200        {array}   AuditLog
// @Failure      500        {object}  errors.ErrorResponse
// @Router       /audit/logs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	ruleID := c.Query("rule_id")
	ruleType := c.Query("rule_type")
	limit := parseLimit(c.Query("limit"))

	var ruleIDPtr *string
	if ruleID != "" {
		ruleIDPtr = &ruleID
	}

	logs, err := h.Service.GetAuditLogs(c.Request.Context(), ruleIDPtr, ruleType, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func parseLimit(limitStr string) int {
	if limitStr == "" {
		return constants.DefaultLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > constants.MaxLimit {
		return constants.DefaultLimit
	}
	return parsed
}

type DecisionHandler struct {
	BaseHandler
}

func NewDecisionHandler(service Service, log logger.Logger) *DecisionHandler {
	return &DecisionHandler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *DecisionHandler) RegisterDecisionRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		decisions := v1.Group("/decisions")
		{
			decisions.GET("", h.ListDecisions)
			decisions.GET("/:id", h.GetDecision)
		}
	}
}

// ListDecisions godoc
// @Summary      List trigger decisions
// @Description  Get past trigger decisions, newest first, with optional filters
// @Tags         decisions
// @Accept       json
// @Produce      json
// @Param        scope      query     string  false  "Filter by scope"
// @Param        triggered  query     bool    false  "Only decisions that triggered retraining"
// @Param        since      query     string  false  "RFC3339 lower bound on evaluated_at"
// @Param        until      query     string  false  "RFC3339 upper bound on evaluated_at"
// @Param        limit      query     int     false  "Maximum number of decisions to return (1-1000)" default(100)
// @Success      200        {array}   models.TriggerDecision
// @Failure      400        {object}  errors.ErrorResponse
// @Failure      500        {object}  errors.ErrorResponse
// @Router       /decisions [get]
func (h *DecisionHandler) ListDecisions(c *gin.Context) {
	filter := DecisionHistoryFilter{
		Scope:         c.Query("scope"),
		OnlyTriggered: c.Query("triggered") == "true",
		Limit:         parseLimit(c.Query("limit")),
	}

	if since := c.Query("since"); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
			return
		}
		filter.Since = &parsed
	}

	if until := c.Query("until"); until != "" {
		parsed, err := time.Parse(time.RFC3339, until)
		if err != nil {
			c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
			return
		}
		filter.Until = &parsed
	}

	decisions, err := h.Service.ListDecisions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, decisions)
}

// GetDecision godoc
// @Summary      Get a trigger decision by ID
// @Description  Get a specific trigger decision by its ID
// @Tags         decisions
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Decision ID"
// @Success      200  {object}   models.TriggerDecision
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /decisions/{id} [get]
func (h *DecisionHandler) GetDecision(c *gin.Context) {
	id := c.Param("id")
	decision, err := h.Service.GetDecision(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

type IntakeConfigHandler struct {
	BaseHandler
}

func NewIntakeConfigHandler(service Service, log logger.Logger) *IntakeConfigHandler {
	return &IntakeConfigHandler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *IntakeConfigHandler) RegisterIntakeConfigRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		config := v1.Group("/config/intake")
		{
			config.GET("", h.GetIntakeConfig)
			config.PUT("", h.UpdateIntakeConfig)
		}
	}
}

// GetIntakeConfig godoc
// @Summary      Get intake configuration
// @Description  Get the current intake service configuration
// @Tags         intake-config
// @Accept       json
// @Produce      json
// @Success      200  {object}   IntakeConfig
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /config/intake [get]
func (h *IntakeConfigHandler) GetIntakeConfig(c *gin.Context) {
	config, err := h.Service.GetIntakeConfig(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// UpdateIntakeConfig godoc
// @Summary      Update intake configuration
// @Description  Update the intake service configuration
// @Tags         intake-config
// @Accept       json
// @Produce      json
// @Param        config  body       UpdateIntakeConfigRequest  true  "Updated configuration"
// @Success      200     {object}   IntakeConfig
// @Failure      400     {object}  errors.ErrorResponse
// @Failure      500     {object}  errors.ErrorResponse
// @Router       /config/intake [put]
func (h *IntakeConfigHandler) UpdateIntakeConfig(c *gin.Context) {
	var req UpdateIntakeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	config, err := h.Service.UpdateIntakeConfig(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, config)
}
