package sla

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/repository"
)

// Tracker maintains per-ticket SLA tracking rows: creation when a ticket
// first resolves to a policy and due-time recomputation when the ticket's
// policy scope changes.
type Tracker struct {
	policies repository.SLAPolicyRepository
	tracking repository.SLATrackingRepository
	logger   *zap.Logger
}

// NewTracker constructs the tracker.
func NewTracker(policies repository.SLAPolicyRepository, tracking repository.SLATrackingRepository, logger *zap.Logger) *Tracker {
	return &Tracker{policies: policies, tracking: tracking, logger: logger}
}

// EnsureTracking creates the tracking row for a ticket if an active policy
// matches its department and priority. Absence of a policy is not an error;
// the ticket simply goes untracked.
func (t *Tracker) EnsureTracking(ctx context.Context, snapshot *domain.TicketSnapshot) error {
	policy, err := t.policies.FindActive(ctx, snapshot.DepartmentID, snapshot.Priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			t.logger.Info("no active SLA policy for ticket",
				zap.String("ticket_id", snapshot.TicketID),
				zap.Int64("department_id", snapshot.DepartmentID),
				zap.String("priority", string(snapshot.Priority)))
			return nil
		}
		return err
	}

	tracking := &domain.SLATracking{
		TicketID:           snapshot.TicketID,
		PolicyID:           policy.ID,
		FirstResponseDueAt: DueAt(snapshot.CreatedAt, policy.FirstResponseMinutes),
		ResolutionDueAt:    DueAt(snapshot.CreatedAt, policy.ResolutionMinutes),
	}
	return t.tracking.Create(ctx, tracking)
}

// Recompute refreshes due times after a priority or department change. Due
// times are always derived from the original creation time against the new
// policy, and a deadline whose warning or breach marker is already set keeps
// its old due time: markers never rewind.
func (t *Tracker) Recompute(ctx context.Context, snapshot *domain.TicketSnapshot) error {
	tracking, err := t.tracking.GetByTicket(ctx, snapshot.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// the new scope may resolve to a policy even if the old one did not
			return t.EnsureTracking(ctx, snapshot)
		}
		return err
	}

	policy, err := t.policies.FindActive(ctx, snapshot.DepartmentID, snapshot.Priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			t.logger.Info("no active SLA policy for new ticket scope, keeping existing deadlines",
				zap.String("ticket_id", snapshot.TicketID))
			return nil
		}
		return err
	}

	if tracking.FirstResponseWarnedAt == nil && tracking.FirstResponseBreachedAt == nil {
		due := DueAt(snapshot.CreatedAt, policy.FirstResponseMinutes)
		if err := t.tracking.UpdateDueAt(ctx, tracking.ID, domain.DeadlineFirstResponse, due); err != nil {
			return err
		}
	}
	if tracking.ResolutionWarnedAt == nil && tracking.ResolutionBreachedAt == nil {
		due := DueAt(snapshot.CreatedAt, policy.ResolutionMinutes)
		if err := t.tracking.UpdateDueAt(ctx, tracking.ID, domain.DeadlineResolution, due); err != nil {
			return err
		}
	}
	return nil
}
