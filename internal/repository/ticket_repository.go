package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/automation-service/internal/domain"
)

// TicketReadRepository is the read side of the ticket platform's table:
// snapshots for evaluation and open-ticket enumeration for periodic sweeps.
type TicketReadRepository interface {
	GetSnapshot(ctx context.Context, id string) (*domain.TicketSnapshot, error)
	ListOpenIDs(ctx context.Context, limit, offset int) ([]string, error)
}

// TicketMutationRepository is the narrow mutation surface automation actions
// are allowed to use. Each method returns the previous value so executions
// can be audited with old/new pairs.
type TicketMutationRepository interface {
	AssignDepartment(ctx context.Context, id string, departmentID int64) (int64, error)
	AssignUser(ctx context.Context, id, userID string) (*string, error)
	SetPriority(ctx context.Context, id string, priority domain.TicketPriority) (domain.TicketPriority, error)
	AddTag(ctx context.Context, id, tag string) ([]string, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the combined read/mutation repository
// over the shared tickets table.
func NewTicketRepository(pool *pgxpool.Pool) interface {
	TicketReadRepository
	TicketMutationRepository
} {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetSnapshot(ctx context.Context, id string) (*domain.TicketSnapshot, error) {
	const query = `
        SELECT id, subject, priority, department_id, status, requester_email,
               assignee_staff_id, tags, created_at, first_response_at, resolved_at
        FROM tickets WHERE id=$1`
	var snap domain.TicketSnapshot
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&snap.TicketID,
		&snap.Subject,
		&snap.Priority,
		&snap.DepartmentID,
		&snap.Status,
		&snap.RequesterEmail,
		&snap.AssigneeID,
		&snap.Tags,
		&snap.CreatedAt,
		&snap.FirstResponseAt,
		&snap.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *ticketRepository) ListOpenIDs(ctx context.Context, limit, offset int) ([]string, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id FROM tickets WHERE status = ANY($1)
        ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, openStatusStrings(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ticketRepository) AssignDepartment(ctx context.Context, id string, departmentID int64) (int64, error) {
	const query = `
        WITH prev AS (SELECT department_id FROM tickets WHERE id=$2)
        UPDATE tickets SET department_id=$1, updated_at=NOW() WHERE id=$2
        RETURNING (SELECT department_id FROM prev)`
	var old int64
	if err := r.pool.QueryRow(ctx, query, departmentID, id).Scan(&old); err != nil {
		return 0, err
	}
	return old, nil
}

func (r *ticketRepository) AssignUser(ctx context.Context, id, userID string) (*string, error) {
	const query = `
        WITH prev AS (SELECT assignee_staff_id FROM tickets WHERE id=$2)
        UPDATE tickets SET assignee_staff_id=$1, updated_at=NOW() WHERE id=$2
        RETURNING (SELECT assignee_staff_id FROM prev)`
	var old *string
	if err := r.pool.QueryRow(ctx, query, userID, id).Scan(&old); err != nil {
		return nil, err
	}
	return old, nil
}

func (r *ticketRepository) SetPriority(ctx context.Context, id string, priority domain.TicketPriority) (domain.TicketPriority, error) {
	const query = `
        WITH prev AS (SELECT priority FROM tickets WHERE id=$2)
        UPDATE tickets SET priority=$1, updated_at=NOW() WHERE id=$2
        RETURNING (SELECT priority FROM prev)`
	var old domain.TicketPriority
	if err := r.pool.QueryRow(ctx, query, priority, id).Scan(&old); err != nil {
		return "", err
	}
	return old, nil
}

func (r *ticketRepository) AddTag(ctx context.Context, id, tag string) ([]string, error) {
	const query = `
        WITH prev AS (SELECT tags FROM tickets WHERE id=$2)
        UPDATE tickets
        SET tags = CASE WHEN $1 = ANY(tags) THEN tags ELSE array_append(tags, $1) END,
            updated_at=NOW()
        WHERE id=$2
        RETURNING (SELECT tags FROM prev)`
	var old []string
	if err := r.pool.QueryRow(ctx, query, tag, id).Scan(&old); err != nil {
		return nil, err
	}
	return old, nil
}
