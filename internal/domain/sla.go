package domain

import (
	"fmt"
	"time"
)

// SLAPolicy scopes deadline configuration to a department and priority.
// At most one active policy may exist per (department, priority) pair.
type SLAPolicy struct {
	ID                   string         `json:"id"`
	DepartmentID         int64          `json:"department_id"`
	Priority             TicketPriority `json:"priority"`
	FirstResponseMinutes int            `json:"first_response_minutes"`
	ResolutionMinutes    int            `json:"resolution_minutes"`
	IsActive             bool           `json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// Validate checks policy fields at save time.
func (p *SLAPolicy) Validate() error {
	if p.DepartmentID <= 0 {
		return fmt.Errorf("department_id required")
	}
	if !ValidPriority(p.Priority) {
		return fmt.Errorf("unknown priority %q", p.Priority)
	}
	if p.FirstResponseMinutes <= 0 {
		return fmt.Errorf("first_response_minutes must be positive")
	}
	if p.ResolutionMinutes <= 0 {
		return fmt.Errorf("resolution_minutes must be positive")
	}
	return nil
}

// DeadlineKind distinguishes the two tracked deadlines.
type DeadlineKind string

const (
	DeadlineFirstResponse DeadlineKind = "FIRST_RESPONSE"
	DeadlineResolution    DeadlineKind = "RESOLUTION"
)

// DeadlineState is the monitor's per-deadline state machine position.
type DeadlineState string

const (
	DeadlinePending   DeadlineState = "PENDING"
	DeadlineAtRisk    DeadlineState = "AT_RISK"
	DeadlineBreached  DeadlineState = "BREACHED"
	DeadlineSatisfied DeadlineState = "SATISFIED"
)

// SLATracking holds the computed deadlines and set-once marker timestamps
// for one ticket. Warning and breach markers are never cleared or rewound,
// even if a later priority change would have improved the deadline.
type SLATracking struct {
	ID                      string     `json:"id"`
	TicketID                string     `json:"ticket_id"`
	PolicyID                string     `json:"policy_id"`
	FirstResponseDueAt      time.Time  `json:"first_response_due_at"`
	ResolutionDueAt         time.Time  `json:"resolution_due_at"`
	FirstResponseWarnedAt   *time.Time `json:"first_response_warned_at,omitempty"`
	ResolutionWarnedAt      *time.Time `json:"resolution_warned_at,omitempty"`
	FirstResponseBreachedAt *time.Time `json:"first_response_breached_at,omitempty"`
	ResolutionBreachedAt    *time.Time `json:"resolution_breached_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// DueAt returns the due timestamp for the given deadline kind.
func (t *SLATracking) DueAt(kind DeadlineKind) time.Time {
	if kind == DeadlineFirstResponse {
		return t.FirstResponseDueAt
	}
	return t.ResolutionDueAt
}

// WarnedAt returns the set-once warning marker for the given deadline kind.
func (t *SLATracking) WarnedAt(kind DeadlineKind) *time.Time {
	if kind == DeadlineFirstResponse {
		return t.FirstResponseWarnedAt
	}
	return t.ResolutionWarnedAt
}

// BreachedAt returns the set-once breach marker for the given deadline kind.
func (t *SLATracking) BreachedAt(kind DeadlineKind) *time.Time {
	if kind == DeadlineFirstResponse {
		return t.FirstResponseBreachedAt
	}
	return t.ResolutionBreachedAt
}

// MilestoneReached reports whether the ticket milestone corresponding to the
// deadline kind occurred.
func MilestoneReached(kind DeadlineKind, snapshot *TicketSnapshot) bool {
	if kind == DeadlineFirstResponse {
		return snapshot.FirstResponded()
	}
	return snapshot.Resolved()
}
