package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-service/internal/api/dto"
	"github.com/spec-kit/automation-service/internal/auth"
	"github.com/spec-kit/automation-service/internal/service"
	apperrors "github.com/spec-kit/automation-service/pkg/util"
)

// SLAHandler manages SLA policy, threshold and tracking endpoints.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// CreatePolicy POST /admin/sla/policies.
func (h *SLAHandler) CreatePolicy(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.SavePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	policy, err := h.service.CreatePolicy(c.UserContext(), principal.SubjectID, req.ToDomain())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// UpdatePolicy PUT /admin/sla/policies/:id.
func (h *SLAHandler) UpdatePolicy(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.SavePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	policy := req.ToDomain()
	policy.ID = c.Params("id")
	updated, err := h.service.UpdatePolicy(c.UserContext(), principal.SubjectID, policy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPolicyResponse(updated)})
}

// ListPolicies GET /admin/sla/policies.
func (h *SLAHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.service.ListPolicies(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, dto.NewPolicyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetPolicy GET /admin/sla/policies/:id.
func (h *SLAHandler) GetPolicy(c *fiber.Ctx) error {
	policy, err := h.service.GetPolicy(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// GetTicketTracking GET /admin/sla/tracking/:ticketId.
func (h *SLAHandler) GetTicketTracking(c *fiber.Ctx) error {
	report, err := h.service.GetTrackingForTicket(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// ListTracking GET /admin/sla/tracking.
func (h *SLAHandler) ListTracking(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	rows, err := h.service.ListTracking(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rows})
}

// GetWarningPercent GET /admin/sla/warning-percent.
func (h *SLAHandler) GetWarningPercent(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"percent": h.service.WarningPercent(c.UserContext()),
	}})
}

// SetWarningPercent PUT /admin/sla/warning-percent.
func (h *SLAHandler) SetWarningPercent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.WarningPercentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.service.SetWarningPercent(c.UserContext(), principal.SubjectID, req.Percent); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
