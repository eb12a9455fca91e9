package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/repository"
	"github.com/spec-kit/automation-service/pkg/util"
)

// ruleCache lets the service drop the cached active rule set after an edit.
type ruleCache interface {
	Invalidate(ctx context.Context)
}

// AutomationService manages the automation rule lifecycle for the admin API.
type AutomationService struct {
	rules  repository.RuleRepository
	cache  ruleCache
	audit  repository.AuditRepository
	logger *zap.Logger
}

// NewAutomationService constructs the service.
func NewAutomationService(rules repository.RuleRepository, cache ruleCache, audit repository.AuditRepository, logger *zap.Logger) *AutomationService {
	return &AutomationService{rules: rules, cache: cache, audit: audit, logger: logger}
}

// CreateRule validates and stores a new rule.
func (s *AutomationService) CreateRule(ctx context.Context, actorID string, rule *domain.AutomationRule) (*domain.AutomationRule, error) {
	if err := rule.Validate(); err != nil {
		return nil, util.NewValidationError(err.Error(), nil)
	}
	rule.CreatedBy = &actorID
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "rule_created", rule.ID, nil, ruleAuditValue(rule))
	s.cache.Invalidate(ctx)
	return rule, nil
}

// UpdateRule validates and replaces the stored definition of an existing rule.
func (s *AutomationService) UpdateRule(ctx context.Context, actorID string, rule *domain.AutomationRule) (*domain.AutomationRule, error) {
	if err := rule.Validate(); err != nil {
		return nil, util.NewValidationError(err.Error(), nil)
	}
	existing, err := s.rules.GetByID(ctx, rule.ID)
	if err != nil {
		return nil, err
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "rule_updated", rule.ID, ruleAuditValue(existing), ruleAuditValue(rule))
	s.cache.Invalidate(ctx)
	return rule, nil
}

// SetRuleActive toggles a rule without touching its definition.
func (s *AutomationService) SetRuleActive(ctx context.Context, actorID, ruleID string, active bool) error {
	existing, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if existing.IsActive == active {
		return nil
	}
	if err := s.rules.SetActive(ctx, ruleID, active); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "rule_toggled", ruleID,
		map[string]any{"is_active": existing.IsActive},
		map[string]any{"is_active": active})
	s.cache.Invalidate(ctx)
	return nil
}

// DeleteRule removes a rule permanently.
func (s *AutomationService) DeleteRule(ctx context.Context, actorID, ruleID string) error {
	existing, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if err := s.rules.Delete(ctx, ruleID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "rule_deleted", ruleID, ruleAuditValue(existing), nil)
	s.cache.Invalidate(ctx)
	return nil
}

// GetRule fetches one rule.
func (s *AutomationService) GetRule(ctx context.Context, ruleID string) (*domain.AutomationRule, error) {
	return s.rules.GetByID(ctx, ruleID)
}

// ListRules returns a page of rules, active or not.
func (s *AutomationService) ListRules(ctx context.Context, limit, offset int) ([]domain.AutomationRule, error) {
	return s.rules.List(ctx, limit, offset)
}

func (s *AutomationService) recordAudit(ctx context.Context, actorID, action, ruleID string, oldValue, newValue map[string]any) {
	entry := &domain.AuditEntry{
		ActorID:  &actorID,
		Action:   action,
		Entity:   domain.AuditEntityRule,
		EntityID: ruleID,
		OldValue: oldValue,
		NewValue: newValue,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record rule audit entry",
			zap.String("rule_id", ruleID),
			zap.Error(err))
	}
}

func ruleAuditValue(rule *domain.AutomationRule) map[string]any {
	return map[string]any{
		"name":       rule.Name,
		"trigger":    rule.Trigger,
		"conditions": rule.Conditions,
		"actions":    rule.Actions,
		"is_active":  rule.IsActive,
		"priority":   rule.Priority,
	}
}
