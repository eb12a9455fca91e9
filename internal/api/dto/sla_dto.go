package dto

import (
	"time"

	"github.com/spec-kit/automation-service/internal/domain"
)

// SavePolicyRequest is the create/update payload for an SLA policy.
type SavePolicyRequest struct {
	DepartmentID         int64                 `json:"department_id"`
	Priority             domain.TicketPriority `json:"priority"`
	FirstResponseMinutes int                   `json:"first_response_minutes"`
	ResolutionMinutes    int                   `json:"resolution_minutes"`
	IsActive             *bool                 `json:"is_active"`
}

// ToDomain converts the request into a domain policy.
func (r SavePolicyRequest) ToDomain() *domain.SLAPolicy {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.SLAPolicy{
		DepartmentID:         r.DepartmentID,
		Priority:             r.Priority,
		FirstResponseMinutes: r.FirstResponseMinutes,
		ResolutionMinutes:    r.ResolutionMinutes,
		IsActive:             active,
	}
}

// PolicyResponse is the API representation of a policy.
type PolicyResponse struct {
	ID                   string                `json:"id"`
	DepartmentID         int64                 `json:"department_id"`
	Priority             domain.TicketPriority `json:"priority"`
	FirstResponseMinutes int                   `json:"first_response_minutes"`
	ResolutionMinutes    int                   `json:"resolution_minutes"`
	IsActive             bool                  `json:"is_active"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// NewPolicyResponse maps a domain policy.
func NewPolicyResponse(policy *domain.SLAPolicy) PolicyResponse {
	return PolicyResponse{
		ID:                   policy.ID,
		DepartmentID:         policy.DepartmentID,
		Priority:             policy.Priority,
		FirstResponseMinutes: policy.FirstResponseMinutes,
		ResolutionMinutes:    policy.ResolutionMinutes,
		IsActive:             policy.IsActive,
		CreatedAt:            policy.CreatedAt,
		UpdatedAt:            policy.UpdatedAt,
	}
}

// WarningPercentRequest sets the warning threshold.
type WarningPercentRequest struct {
	Percent int `json:"percent"`
}
