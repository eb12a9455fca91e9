package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-service/internal/api/http/handlers"
	"github.com/spec-kit/automation-service/internal/auth"
	"github.com/spec-kit/automation-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Rules          *handlers.RulesHandler
	SLA            *handlers.SLAHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Everything under /admin requires a staff
// token; mutations additionally require the ADMIN role.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	adminOnly := auth.RequireStaffRole(domain.StaffRoleAdmin)

	// any staff token can read; mutations need the ADMIN role
	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())

	rules := admin.Group("/rules")
	rules.Get("", cfg.Rules.ListRules)
	rules.Get("/:id", cfg.Rules.GetRule)
	rules.Post("", adminOnly, cfg.Rules.CreateRule)
	rules.Put("/:id", adminOnly, cfg.Rules.UpdateRule)
	rules.Patch("/:id/active", adminOnly, cfg.Rules.SetRuleActive)
	rules.Delete("/:id", adminOnly, cfg.Rules.DeleteRule)

	sla := admin.Group("/sla")
	sla.Get("/policies", cfg.SLA.ListPolicies)
	sla.Get("/policies/:id", cfg.SLA.GetPolicy)
	sla.Post("/policies", adminOnly, cfg.SLA.CreatePolicy)
	sla.Put("/policies/:id", adminOnly, cfg.SLA.UpdatePolicy)
	sla.Get("/tracking", cfg.SLA.ListTracking)
	sla.Get("/tracking/:ticketId", cfg.SLA.GetTicketTracking)
	sla.Get("/warning-percent", cfg.SLA.GetWarningPercent)
	sla.Put("/warning-percent", adminOnly, cfg.SLA.SetWarningPercent)

	admin.Get("/audit", cfg.Audit.ListAudit)
	admin.Get("/metrics", cfg.Audit.GetMetrics)
}
