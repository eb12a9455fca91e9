package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/repository"
	"github.com/spec-kit/automation-service/internal/sla"
	"github.com/spec-kit/automation-service/pkg/util"
)

// SLAService manages SLA policies, the warning threshold setting, and
// tracking reports for the admin API. It also serves the monitor's
// per-sweep threshold reads so admin changes apply on the next sweep
// without a restart.
type SLAService struct {
	policies       repository.SLAPolicyRepository
	tracking       repository.SLATrackingRepository
	tickets        repository.TicketReadRepository
	settings       repository.SettingsRepository
	audit          repository.AuditRepository
	defaultPercent int
	logger         *zap.Logger
	now            func() time.Time
}

// NewSLAService constructs the service.
func NewSLAService(
	policies repository.SLAPolicyRepository,
	tracking repository.SLATrackingRepository,
	tickets repository.TicketReadRepository,
	settings repository.SettingsRepository,
	audit repository.AuditRepository,
	defaultPercent int,
	logger *zap.Logger,
) *SLAService {
	return &SLAService{
		policies:       policies,
		tracking:       tracking,
		tickets:        tickets,
		settings:       settings,
		audit:          audit,
		defaultPercent: defaultPercent,
		logger:         logger,
		now:            time.Now,
	}
}

// CreatePolicy validates and stores a new policy. Creating a second active
// policy for the same (department, priority) pair is rejected as a conflict.
func (s *SLAService) CreatePolicy(ctx context.Context, actorID string, policy *domain.SLAPolicy) (*domain.SLAPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, util.NewValidationError(err.Error(), nil)
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, mapPolicyWriteErr(err, policy)
	}
	s.recordAudit(ctx, actorID, "sla_policy_created", policy.ID, nil, policyAuditValue(policy))
	return policy, nil
}

// UpdatePolicy validates and replaces an existing policy.
func (s *SLAService) UpdatePolicy(ctx context.Context, actorID string, policy *domain.SLAPolicy) (*domain.SLAPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, util.NewValidationError(err.Error(), nil)
	}
	existing, err := s.policies.GetByID(ctx, policy.ID)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Update(ctx, policy); err != nil {
		return nil, mapPolicyWriteErr(err, policy)
	}
	s.recordAudit(ctx, actorID, "sla_policy_updated", policy.ID, policyAuditValue(existing), policyAuditValue(policy))
	return policy, nil
}

// ListPolicies returns all policies, active and inactive.
func (s *SLAService) ListPolicies(ctx context.Context) ([]domain.SLAPolicy, error) {
	return s.policies.List(ctx)
}

// GetPolicy fetches one policy.
func (s *SLAService) GetPolicy(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	return s.policies.GetByID(ctx, id)
}

// DeadlineReport is the per-deadline view of one ticket's SLA position.
type DeadlineReport struct {
	Kind       domain.DeadlineKind  `json:"kind"`
	DueAt      time.Time            `json:"due_at"`
	State      domain.DeadlineState `json:"state"`
	WarnedAt   *time.Time           `json:"warned_at,omitempty"`
	BreachedAt *time.Time           `json:"breached_at,omitempty"`
}

// TrackingReport combines the stored tracking row with derived states.
type TrackingReport struct {
	Tracking  domain.SLATracking `json:"tracking"`
	Deadlines []DeadlineReport   `json:"deadlines"`
}

// GetTrackingForTicket returns the tracking row with derived per-deadline
// states. Tickets without a matching policy have no tracking row.
func (s *SLAService) GetTrackingForTicket(ctx context.Context, ticketID string) (*TrackingReport, error) {
	tracking, err := s.tracking.GetByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("sla tracking", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	snapshot, err := s.tickets.GetSnapshot(ctx, ticketID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	now := s.now()
	report := &TrackingReport{Tracking: *tracking}
	for _, kind := range []domain.DeadlineKind{domain.DeadlineFirstResponse, domain.DeadlineResolution} {
		report.Deadlines = append(report.Deadlines, DeadlineReport{
			Kind:       kind,
			DueAt:      tracking.DueAt(kind),
			State:      sla.StateOf(kind, tracking, snapshot, now),
			WarnedAt:   tracking.WarnedAt(kind),
			BreachedAt: tracking.BreachedAt(kind),
		})
	}
	return report, nil
}

// ListTracking returns a page of raw tracking rows.
func (s *SLAService) ListTracking(ctx context.Context, limit, offset int) ([]domain.SLATracking, error) {
	return s.tracking.List(ctx, limit, offset)
}

// WarningPercent reads the warning threshold from settings. It is consulted
// fresh on every sweep; a missing or unreadable setting falls back to the
// configured default.
func (s *SLAService) WarningPercent(ctx context.Context) int {
	raw, err := s.settings.Get(ctx, repository.SettingSLAWarningPercent)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("cannot read warning threshold setting, using default", zap.Error(err))
		}
		return s.defaultPercent
	}
	percent, err := strconv.Atoi(raw)
	if err != nil || percent < 0 || percent > 100 {
		s.logger.Warn("ignoring invalid warning threshold setting",
			zap.String("value", raw))
		return s.defaultPercent
	}
	return percent
}

// SetWarningPercent stores a new warning threshold, effective from the next
// sweep.
func (s *SLAService) SetWarningPercent(ctx context.Context, actorID string, percent int) error {
	if percent < 0 || percent > 100 {
		return util.NewValidationError("warning percent must be within 0-100", map[string]any{"percent": percent})
	}
	old := s.WarningPercent(ctx)
	if err := s.settings.Set(ctx, repository.SettingSLAWarningPercent, strconv.Itoa(percent)); err != nil {
		return err
	}
	s.recordAuditEntity(ctx, actorID, "sla_warning_percent_changed", domain.AuditEntitySettings, repository.SettingSLAWarningPercent,
		map[string]any{"percent": old},
		map[string]any{"percent": percent})
	return nil
}

func (s *SLAService) recordAudit(ctx context.Context, actorID, action, policyID string, oldValue, newValue map[string]any) {
	s.recordAuditEntity(ctx, actorID, action, domain.AuditEntitySLAPolicy, policyID, oldValue, newValue)
}

func (s *SLAService) recordAuditEntity(ctx context.Context, actorID, action, entity, entityID string, oldValue, newValue map[string]any) {
	entry := &domain.AuditEntry{
		ActorID:  &actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		OldValue: oldValue,
		NewValue: newValue,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record sla audit entry",
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func mapPolicyWriteErr(err error, policy *domain.SLAPolicy) error {
	if errors.Is(err, repository.ErrDuplicateActivePolicy) {
		return util.NewConflict("an active policy already exists for this department and priority", map[string]any{
			"department_id": policy.DepartmentID,
			"priority":      policy.Priority,
		})
	}
	return err
}

func policyAuditValue(policy *domain.SLAPolicy) map[string]any {
	return map[string]any{
		"department_id":          policy.DepartmentID,
		"priority":               policy.Priority,
		"first_response_minutes": policy.FirstResponseMinutes,
		"resolution_minutes":     policy.ResolutionMinutes,
		"is_active":              policy.IsActive,
	}
}
