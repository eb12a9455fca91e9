package sla

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/repository"
)

type fakePolicyRepo struct {
	policies map[string]*domain.SLAPolicy
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: make(map[string]*domain.SLAPolicy)}
}

func policyKey(departmentID int64, priority domain.TicketPriority) string {
	return strconv.FormatInt(departmentID, 10) + "|" + string(priority)
}

func (f *fakePolicyRepo) add(policy *domain.SLAPolicy) {
	f.policies[policyKey(policy.DepartmentID, policy.Priority)] = policy
}

func (f *fakePolicyRepo) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	f.add(policy)
	return nil
}

func (f *fakePolicyRepo) Update(ctx context.Context, policy *domain.SLAPolicy) error {
	f.add(policy)
	return nil
}

func (f *fakePolicyRepo) GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	for _, policy := range f.policies {
		if policy.ID == id {
			return policy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePolicyRepo) FindActive(ctx context.Context, departmentID int64, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	policy, ok := f.policies[policyKey(departmentID, priority)]
	if !ok || !policy.IsActive {
		return nil, pgx.ErrNoRows
	}
	return policy, nil
}

func (f *fakePolicyRepo) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	var out []domain.SLAPolicy
	for _, policy := range f.policies {
		out = append(out, *policy)
	}
	return out, nil
}

type fakeTrackingRepo struct {
	mu        sync.Mutex
	seq       int
	rows      map[string]*domain.SLATracking
	snapshots map[string]*domain.TicketSnapshot
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{
		rows:      make(map[string]*domain.SLATracking),
		snapshots: make(map[string]*domain.TicketSnapshot),
	}
}

func (f *fakeTrackingRepo) Create(ctx context.Context, tracking *domain.SLATracking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.TicketID == tracking.TicketID {
			return nil
		}
	}
	f.seq++
	tracking.ID = fmt.Sprintf("trk-%d", f.seq)
	tracking.CreatedAt = time.Now()
	tracking.UpdatedAt = tracking.CreatedAt
	copied := *tracking
	f.rows[tracking.ID] = &copied
	return nil
}

func (f *fakeTrackingRepo) GetByTicket(ctx context.Context, ticketID string) (*domain.SLATracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.TicketID == ticketID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTrackingRepo) UpdateDueAt(ctx context.Context, trackingID string, kind domain.DeadlineKind, dueAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[trackingID]
	if !ok {
		return pgx.ErrNoRows
	}
	if kind == domain.DeadlineFirstResponse {
		row.FirstResponseDueAt = dueAt
	} else {
		row.ResolutionDueAt = dueAt
	}
	return nil
}

func (f *fakeTrackingRepo) MarkWarned(ctx context.Context, trackingID string, kind domain.DeadlineKind, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[trackingID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if kind == domain.DeadlineFirstResponse {
		if row.FirstResponseWarnedAt != nil {
			return false, nil
		}
		row.FirstResponseWarnedAt = &at
	} else {
		if row.ResolutionWarnedAt != nil {
			return false, nil
		}
		row.ResolutionWarnedAt = &at
	}
	return true, nil
}

func (f *fakeTrackingRepo) MarkBreached(ctx context.Context, trackingID string, kind domain.DeadlineKind, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[trackingID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if kind == domain.DeadlineFirstResponse {
		if row.FirstResponseBreachedAt != nil {
			return false, nil
		}
		row.FirstResponseBreachedAt = &at
	} else {
		if row.ResolutionBreachedAt != nil {
			return false, nil
		}
		row.ResolutionBreachedAt = &at
	}
	return true, nil
}

func (f *fakeTrackingRepo) ListOpenForSweep(ctx context.Context, limit, offset int) ([]repository.SweepItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []repository.SweepItem
	for _, row := range f.rows {
		snap, ok := f.snapshots[row.TicketID]
		if !ok || !snap.IsOpen() {
			continue
		}
		items = append(items, repository.SweepItem{Tracking: *row, Snapshot: *snap})
	}
	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (f *fakeTrackingRepo) List(ctx context.Context, limit, offset int) ([]domain.SLATracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SLATracking
	for _, row := range f.rows {
		out = append(out, *row)
	}
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (f *fakeNotifier) Enqueue(ctx context.Context, n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixedThreshold int

func (f fixedThreshold) WarningPercent(ctx context.Context) int { return int(f) }
