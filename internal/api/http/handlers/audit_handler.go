package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-service/internal/observability"
	"github.com/spec-kit/automation-service/internal/repository"
	apperrors "github.com/spec-kit/automation-service/pkg/util"
)

// AuditHandler exposes the audit log and internal counters.
type AuditHandler struct {
	audit   repository.AuditRepository
	metrics *observability.Metrics
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit repository.AuditRepository, metrics *observability.Metrics) *AuditHandler {
	return &AuditHandler{audit: audit, metrics: metrics}
}

// ListAudit GET /admin/audit.
func (h *AuditHandler) ListAudit(c *fiber.Ctx) error {
	entity := c.Query("entity")
	entityID := c.Query("entity_id")
	if entity == "" || entityID == "" {
		return apperrors.NewValidationError("entity and entity_id query parameters required", nil)
	}
	limit, offset := parsePagination(c)

	entries, err := h.audit.ListByEntity(c.UserContext(), entity, entityID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// GetMetrics GET /admin/metrics.
func (h *AuditHandler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
