package dto

import (
	"time"

	"github.com/spec-kit/automation-service/internal/domain"
)

// SaveRuleRequest is the create/update payload for an automation rule.
type SaveRuleRequest struct {
	Name       string             `json:"name"`
	Trigger    domain.Trigger     `json:"trigger"`
	Conditions []domain.Condition `json:"conditions"`
	Actions    []domain.Action    `json:"actions"`
	IsActive   *bool              `json:"is_active"`
	Priority   int                `json:"priority"`
}

// ToDomain converts the request into a domain rule.
func (r SaveRuleRequest) ToDomain() *domain.AutomationRule {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.AutomationRule{
		Name:       r.Name,
		Trigger:    r.Trigger,
		Conditions: r.Conditions,
		Actions:    r.Actions,
		IsActive:   active,
		Priority:   r.Priority,
	}
}

// SetRuleActiveRequest toggles a rule.
type SetRuleActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// RuleResponse is the API representation of a rule.
type RuleResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Trigger    domain.Trigger     `json:"trigger"`
	Conditions []domain.Condition `json:"conditions"`
	Actions    []domain.Action    `json:"actions"`
	IsActive   bool               `json:"is_active"`
	Priority   int                `json:"priority"`
	CreatedBy  *string            `json:"created_by,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// NewRuleResponse maps a domain rule.
func NewRuleResponse(rule *domain.AutomationRule) RuleResponse {
	return RuleResponse{
		ID:         rule.ID,
		Name:       rule.Name,
		Trigger:    rule.Trigger,
		Conditions: rule.Conditions,
		Actions:    rule.Actions,
		IsActive:   rule.IsActive,
		Priority:   rule.Priority,
		CreatedBy:  rule.CreatedBy,
		CreatedAt:  rule.CreatedAt,
		UpdatedAt:  rule.UpdatedAt,
	}
}
