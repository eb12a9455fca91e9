package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-service/internal/domain"
)

// SweepItem pairs a tracking row with the snapshot of its ticket, fetched in
// one query for the monitor's sweep.
type SweepItem struct {
	Tracking domain.SLATracking
	Snapshot domain.TicketSnapshot
}

// SLATrackingRepository encapsulates per-ticket SLA tracking persistence.
// MarkWarned and MarkBreached enforce set-once at the SQL level so repeated
// sweeps cannot double-fire.
type SLATrackingRepository interface {
	Create(ctx context.Context, tracking *domain.SLATracking) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.SLATracking, error)
	UpdateDueAt(ctx context.Context, trackingID string, kind domain.DeadlineKind, dueAt time.Time) error
	MarkWarned(ctx context.Context, trackingID string, kind domain.DeadlineKind, at time.Time) (bool, error)
	MarkBreached(ctx context.Context, trackingID string, kind domain.DeadlineKind, at time.Time) (bool, error)
	ListOpenForSweep(ctx context.Context, limit, offset int) ([]SweepItem, error)
	List(ctx context.Context, limit, offset int) ([]domain.SLATracking, error)
}

type slaTrackingRepository struct {
	pool *pgxpool.Pool
}

// NewSLATrackingRepository instantiates repository.
func NewSLATrackingRepository(pool *pgxpool.Pool) SLATrackingRepository {
	return &slaTrackingRepository{pool: pool}
}

const trackingColumns = `id, ticket_id, policy_id, first_response_due_at, resolution_due_at,
               first_response_warned_at, resolution_warned_at,
               first_response_breached_at, resolution_breached_at, created_at, updated_at`

func (r *slaTrackingRepository) Create(ctx context.Context, tracking *domain.SLATracking) error {
	const query = `
        INSERT INTO sla_tracking (ticket_id, policy_id, first_response_due_at, resolution_due_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (ticket_id) DO NOTHING
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		tracking.TicketID,
		tracking.PolicyID,
		tracking.FirstResponseDueAt,
		tracking.ResolutionDueAt,
	).Scan(&tracking.ID, &tracking.CreatedAt, &tracking.UpdatedAt)
	if err == pgx.ErrNoRows {
		// row already existed; creation is idempotent
		return nil
	}
	return err
}

func (r *slaTrackingRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.SLATracking, error) {
	query := `SELECT ` + trackingColumns + ` FROM sla_tracking WHERE ticket_id=$1`
	var tracking domain.SLATracking
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(trackingFields(&tracking)...); err != nil {
		return nil, err
	}
	return &tracking, nil
}

func (r *slaTrackingRepository) UpdateDueAt(ctx context.Context, trackingID string, kind domain.DeadlineKind, dueAt time.Time) error {
	query := `UPDATE sla_tracking SET resolution_due_at=$1, updated_at=NOW() WHERE id=$2`
	if kind == domain.DeadlineFirstResponse {
		query = `UPDATE sla_tracking SET first_response_due_at=$1, updated_at=NOW() WHERE id=$2`
	}
	cmd, err := r.pool.Exec(ctx, query, dueAt, trackingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaTrackingRepository) MarkWarned(ctx context.Context, trackingID string, kind domain.DeadlineKind, at time.Time) (bool, error) {
	query := `UPDATE sla_tracking SET resolution_warned_at=$1, updated_at=NOW()
              WHERE id=$2 AND resolution_warned_at IS NULL`
	if kind == domain.DeadlineFirstResponse {
		query = `UPDATE sla_tracking SET first_response_warned_at=$1, updated_at=NOW()
                 WHERE id=$2 AND first_response_warned_at IS NULL`
	}
	cmd, err := r.pool.Exec(ctx, query, at, trackingID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *slaTrackingRepository) MarkBreached(ctx context.Context, trackingID string, kind domain.DeadlineKind, at time.Time) (bool, error) {
	query := `UPDATE sla_tracking SET resolution_breached_at=$1, updated_at=NOW()
              WHERE id=$2 AND resolution_breached_at IS NULL`
	if kind == domain.DeadlineFirstResponse {
		query = `UPDATE sla_tracking SET first_response_breached_at=$1, updated_at=NOW()
                 WHERE id=$2 AND first_response_breached_at IS NULL`
	}
	cmd, err := r.pool.Exec(ctx, query, at, trackingID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *slaTrackingRepository) ListOpenForSweep(ctx context.Context, limit, offset int) ([]SweepItem, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT st.id, st.ticket_id, st.policy_id, st.first_response_due_at, st.resolution_due_at,
               st.first_response_warned_at, st.resolution_warned_at,
               st.first_response_breached_at, st.resolution_breached_at, st.created_at, st.updated_at,
               t.subject, t.priority, t.department_id, t.status, t.requester_email,
               t.created_at, t.first_response_at, t.resolved_at
        FROM sla_tracking st
        JOIN tickets t ON t.id = st.ticket_id
        WHERE t.status = ANY($1)
        ORDER BY st.created_at ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, openStatusStrings(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SweepItem
	for rows.Next() {
		var item SweepItem
		fields := trackingFields(&item.Tracking)
		fields = append(fields,
			&item.Snapshot.Subject,
			&item.Snapshot.Priority,
			&item.Snapshot.DepartmentID,
			&item.Snapshot.Status,
			&item.Snapshot.RequesterEmail,
			&item.Snapshot.CreatedAt,
			&item.Snapshot.FirstResponseAt,
			&item.Snapshot.ResolvedAt,
		)
		if err := rows.Scan(fields...); err != nil {
			return nil, err
		}
		item.Snapshot.TicketID = item.Tracking.TicketID
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *slaTrackingRepository) List(ctx context.Context, limit, offset int) ([]domain.SLATracking, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + trackingColumns + ` FROM sla_tracking ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLATracking
	for rows.Next() {
		var tracking domain.SLATracking
		if err := rows.Scan(trackingFields(&tracking)...); err != nil {
			return nil, err
		}
		result = append(result, tracking)
	}
	return result, rows.Err()
}

func trackingFields(t *domain.SLATracking) []any {
	return []any{
		&t.ID,
		&t.TicketID,
		&t.PolicyID,
		&t.FirstResponseDueAt,
		&t.ResolutionDueAt,
		&t.FirstResponseWarnedAt,
		&t.ResolutionWarnedAt,
		&t.FirstResponseBreachedAt,
		&t.ResolutionBreachedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
}

func openStatusStrings() []string {
	statuses := make([]string, 0, len(domain.OpenStatuses))
	for _, s := range domain.OpenStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}
