package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-service/internal/api/dto"
	"github.com/spec-kit/automation-service/internal/auth"
	"github.com/spec-kit/automation-service/internal/service"
	apperrors "github.com/spec-kit/automation-service/pkg/util"
)

// RulesHandler manages the automation rule admin endpoints.
type RulesHandler struct {
	service *service.AutomationService
}

// NewRulesHandler constructs handler.
func NewRulesHandler(automationService *service.AutomationService) *RulesHandler {
	return &RulesHandler{service: automationService}
}

// CreateRule POST /admin/rules.
func (h *RulesHandler) CreateRule(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.SaveRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rule, err := h.service.CreateRule(c.UserContext(), principal.SubjectID, req.ToDomain())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRuleResponse(rule)})
}

// UpdateRule PUT /admin/rules/:id.
func (h *RulesHandler) UpdateRule(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.SaveRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rule := req.ToDomain()
	rule.ID = c.Params("id")
	updated, err := h.service.UpdateRule(c.UserContext(), principal.SubjectID, rule)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRuleResponse(updated)})
}

// SetRuleActive PATCH /admin/rules/:id/active.
func (h *RulesHandler) SetRuleActive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.SetRuleActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.service.SetRuleActive(c.UserContext(), principal.SubjectID, c.Params("id"), req.IsActive); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteRule DELETE /admin/rules/:id.
func (h *RulesHandler) DeleteRule(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	if err := h.service.DeleteRule(c.UserContext(), principal.SubjectID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetRule GET /admin/rules/:id.
func (h *RulesHandler) GetRule(c *fiber.Ctx) error {
	rule, err := h.service.GetRule(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRuleResponse(rule)})
}

// ListRules GET /admin/rules.
func (h *RulesHandler) ListRules(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	ruleSet, err := h.service.ListRules(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.RuleResponse, 0, len(ruleSet))
	for i := range ruleSet {
		items = append(items, dto.NewRuleResponse(&ruleSet[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parsePagination(c *fiber.Ctx) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
