package sla

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/observability"
	"github.com/spec-kit/automation-service/internal/repository"
)

// Notifier enqueues a notification request. Enqueueing is fire-and-forget;
// implementations log failures instead of returning them.
type Notifier interface {
	Enqueue(ctx context.Context, n domain.Notification)
}

// WarningPercentSource resolves the warning threshold percent fresh for each
// sweep so admin changes take effect on the next run.
type WarningPercentSource interface {
	WarningPercent(ctx context.Context) int
}

// SweepStats summarizes one monitor pass.
type SweepStats struct {
	Checked  int
	Warned   int
	Breached int
}

// Monitor periodically walks open tracked tickets and raises at-risk and
// breach transitions exactly once per deadline. Idempotency is double
// enforced: markers already present skip the check here, and the repository
// marks with a set-once guard.
type Monitor struct {
	tracking  repository.SLATrackingRepository
	threshold WarningPercentSource
	notifier  Notifier
	logger    *zap.Logger
	metrics   *observability.Metrics
	batchSize int
	now       func() time.Time
}

// NewMonitor constructs the monitor.
func NewMonitor(tracking repository.SLATrackingRepository, threshold WarningPercentSource, notifier Notifier, logger *zap.Logger, metrics *observability.Metrics, batchSize int) *Monitor {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Monitor{
		tracking:  tracking,
		threshold: threshold,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Sweep runs one monitoring pass over all open tracked tickets.
func (m *Monitor) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	percent := m.threshold.WarningPercent(ctx)

	offset := 0
	for {
		items, err := m.tracking.ListOpenForSweep(ctx, m.batchSize, offset)
		if err != nil {
			return stats, err
		}
		for i := range items {
			stats.Checked++
			m.checkDeadline(ctx, &items[i], domain.DeadlineFirstResponse, percent, &stats)
			m.checkDeadline(ctx, &items[i], domain.DeadlineResolution, percent, &stats)
		}
		if len(items) < m.batchSize {
			return stats, nil
		}
		offset += m.batchSize
	}
}

func (m *Monitor) checkDeadline(ctx context.Context, item *repository.SweepItem, kind domain.DeadlineKind, percent int, stats *SweepStats) {
	if domain.MilestoneReached(kind, &item.Snapshot) {
		// SATISFIED is terminal; no transitions fire regardless of due time
		return
	}

	now := m.now()
	due := item.Tracking.DueAt(kind)

	// Warning first, then breach: a ticket that crossed both thresholds
	// since the last sweep gets both transitions in one pass.
	if item.Tracking.WarnedAt(kind) == nil && !now.Before(WarningAt(item.Snapshot.CreatedAt, due, percent)) {
		marked, err := m.tracking.MarkWarned(ctx, item.Tracking.ID, kind, now)
		if err != nil {
			m.logger.Warn("failed to mark SLA warning", zap.Error(err), zap.String("ticket_id", item.Tracking.TicketID))
		} else if marked {
			stats.Warned++
			m.metrics.RecordSLATransition(string(kind), "at_risk")
			m.notifier.Enqueue(ctx, domain.Notification{
				Kind:      domain.NotificationSLAAtRisk,
				TicketID:  item.Tracking.TicketID,
				Recipient: item.Snapshot.RequesterEmail,
				Message:   deadlineMessage(kind, "at risk", due),
			})
		}
	}

	if item.Tracking.BreachedAt(kind) == nil && !now.Before(due) {
		marked, err := m.tracking.MarkBreached(ctx, item.Tracking.ID, kind, now)
		if err != nil {
			m.logger.Warn("failed to mark SLA breach", zap.Error(err), zap.String("ticket_id", item.Tracking.TicketID))
		} else if marked {
			stats.Breached++
			m.metrics.RecordSLATransition(string(kind), "breached")
			m.notifier.Enqueue(ctx, domain.Notification{
				Kind:      domain.NotificationSLABreached,
				TicketID:  item.Tracking.TicketID,
				Recipient: item.Snapshot.RequesterEmail,
				Message:   deadlineMessage(kind, "breached", due),
			})
		}
	}
}

func deadlineMessage(kind domain.DeadlineKind, state string, due time.Time) string {
	label := "resolution"
	if kind == domain.DeadlineFirstResponse {
		label = "first response"
	}
	return fmt.Sprintf("%s deadline %s (due %s)", label, state, due.UTC().Format(time.RFC3339))
}

// StateOf derives the current state of one deadline for reporting.
func StateOf(kind domain.DeadlineKind, tracking *domain.SLATracking, snapshot *domain.TicketSnapshot, now time.Time) domain.DeadlineState {
	if tracking.BreachedAt(kind) != nil {
		return domain.DeadlineBreached
	}
	if snapshot != nil && domain.MilestoneReached(kind, snapshot) {
		return domain.DeadlineSatisfied
	}
	if !now.Before(tracking.DueAt(kind)) {
		return domain.DeadlineBreached
	}
	if tracking.WarnedAt(kind) != nil {
		return domain.DeadlineAtRisk
	}
	return domain.DeadlinePending
}
