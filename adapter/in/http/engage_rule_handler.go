package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"engage_server/adapter/out/persistence"
	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/apperr"
	"engage_server/pkg/logger"
	"engage_server/pkg/response"
)

const defaultExecutionLimit = 50

// RuleHandler manages publisher automation rules.
type RuleHandler struct {
	rules      out.AutomationRuleRepository
	executions out.RuleExecutionLog
	log        *logger.Logger
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(rules out.AutomationRuleRepository, executions out.RuleExecutionLog) *RuleHandler {
	return &RuleHandler{
		rules:      rules,
		executions: executions,
		log:        logger.Default().WithField("component", "rule_handler"),
	}
}

// Register registers automation rule routes.
func (h *RuleHandler) Register(router fiber.Router) {
	rules := router.Group("/rules")
	rules.Get("/", h.List)
	rules.Post("/", h.Create)
	rules.Get("/:id", h.Get)
	rules.Put("/:id", h.Update)
	rules.Delete("/:id", h.Delete)
	rules.Get("/:id/executions", h.Executions)
}

// RuleRequest is the create/update payload for an automation rule.
type RuleRequest struct {
	Name       string                `json:"name"`
	Enabled    bool                  `json:"enabled"`
	Conditions domain.RuleConditions `json:"conditions"`
	Actions    domain.RuleActions    `json:"actions"`
}

// List returns all enabled automation rules.
// @Summary List automation rules
// @Tags Rules
// @Produce json
// @Router /api/v1/rules [get]
func (h *RuleHandler) List(c *fiber.Ctx) error {
	rules, err := h.rules.ListEnabled(c.Context())
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to list rules")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to list rules")
	}
	return response.OKWithMeta(c, rules, &response.Meta{Total: len(rules)})
}

// Get returns one rule by id.
// @Summary Get automation rule
// @Tags Rules
// @Produce json
// @Router /api/v1/rules/{id} [get]
func (h *RuleHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid rule id")
	}

	rule, err := h.rules.GetByID(c.Context(), int64(id))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return response.NotFound(c, "rule not found")
		}
		h.log.WithContext(c.Context()).WithError(err).Error("failed to load rule")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to load rule")
	}
	return response.OK(c, rule)
}

// Create stores a new automation rule.
// @Summary Create automation rule
// @Tags Rules
// @Accept json
// @Produce json
// @Router /api/v1/rules [post]
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var req RuleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid request body")
	}
	if req.Name == "" {
		return response.Error(c, 400, apperr.CodeMissingField, "name is required")
	}

	rule := &domain.AutomationRule{
		Name:       req.Name,
		Enabled:    req.Enabled,
		Conditions: req.Conditions,
		Actions:    req.Actions,
	}
	if err := h.rules.Upsert(c.Context(), rule); err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to create rule")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to create rule")
	}
	return response.Created(c, rule)
}

// Update replaces an existing rule.
// @Summary Update automation rule
// @Tags Rules
// @Accept json
// @Produce json
// @Router /api/v1/rules/{id} [put]
func (h *RuleHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid rule id")
	}

	var req RuleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid request body")
	}
	if req.Name == "" {
		return response.Error(c, 400, apperr.CodeMissingField, "name is required")
	}

	rule := &domain.AutomationRule{
		ID:         int64(id),
		Name:       req.Name,
		Enabled:    req.Enabled,
		Conditions: req.Conditions,
		Actions:    req.Actions,
	}
	if err := h.rules.Upsert(c.Context(), rule); err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to update rule")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to update rule")
	}
	return response.OK(c, rule)
}

// Delete removes a rule.
// @Summary Delete automation rule
// @Tags Rules
// @Router /api/v1/rules/{id} [delete]
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid rule id")
	}

	if err := h.rules.Delete(c.Context(), int64(id)); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return response.NotFound(c, "rule not found")
		}
		h.log.WithContext(c.Context()).WithError(err).Error("failed to delete rule")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to delete rule")
	}
	return response.NoContent(c)
}

// Executions returns recent firings of one rule, newest first.
// @Summary List rule executions
// @Tags Rules
// @Produce json
// @Router /api/v1/rules/{id}/executions [get]
func (h *RuleHandler) Executions(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, 400, apperr.CodeInvalidInput, "invalid rule id")
	}
	limit := c.QueryInt("limit", defaultExecutionLimit)

	if h.executions == nil {
		return response.Error(c, 503, apperr.CodeExternalError, "execution log unavailable")
	}

	execs, err := h.executions.ListByRule(c.Context(), int64(id), limit)
	if err != nil {
		h.log.WithContext(c.Context()).WithError(err).Error("failed to list executions")
		return response.Error(c, 500, apperr.CodeDatabaseError, "failed to list executions")
	}
	return response.OKWithMeta(c, execs, &response.Meta{Total: len(execs)})
}
