package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/repository"
)

var errAssignUser = errors.New("staff not found")

type fakeTickets struct {
	mu        sync.Mutex
	snapshots map[string]*domain.TicketSnapshot
	openIDs   []string
	failUser  bool
}

func newFakeTickets(snapshots ...*domain.TicketSnapshot) *fakeTickets {
	f := &fakeTickets{snapshots: make(map[string]*domain.TicketSnapshot)}
	for _, snap := range snapshots {
		f.snapshots[snap.TicketID] = snap
		f.openIDs = append(f.openIDs, snap.TicketID)
	}
	return f
}

func (f *fakeTickets) GetSnapshot(_ context.Context, id string) (*domain.TicketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *snap
	return &copied, nil
}

func (f *fakeTickets) ListOpenIDs(_ context.Context, limit, offset int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.openIDs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.openIDs) {
		end = len(f.openIDs)
	}
	return append([]string(nil), f.openIDs[offset:end]...), nil
}

func (f *fakeTickets) AssignDepartment(_ context.Context, id string, departmentID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.snapshots[id]
	old := snap.DepartmentID
	snap.DepartmentID = departmentID
	return old, nil
}

func (f *fakeTickets) AssignUser(_ context.Context, id, userID string) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUser {
		return nil, errAssignUser
	}
	snap := f.snapshots[id]
	old := snap.AssigneeID
	snap.AssigneeID = &userID
	return old, nil
}

func (f *fakeTickets) SetPriority(_ context.Context, id string, priority domain.TicketPriority) (domain.TicketPriority, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.snapshots[id]
	old := snap.Priority
	snap.Priority = priority
	return old, nil
}

func (f *fakeTickets) AddTag(_ context.Context, id, tag string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.snapshots[id]
	old := append([]string(nil), snap.Tags...)
	snap.Tags = append(snap.Tags, tag)
	return old, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (f *fakeAudit) Record(_ context.Context, entry *domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = "audit-1"
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) ListByEntity(context.Context, string, string, int, int) ([]domain.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AuditEntry(nil), f.entries...), nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (f *fakeNotifier) Enqueue(_ context.Context, n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

type fakeRuleSource struct {
	rules []domain.AutomationRule
}

func (f *fakeRuleSource) ActiveRules(context.Context) ([]domain.AutomationRule, error) {
	return f.rules, nil
}

type fakePolicyRepo struct {
	policies []domain.SLAPolicy
}

func (fakePolicyRepo) Create(context.Context, *domain.SLAPolicy) error { return nil }
func (fakePolicyRepo) Update(context.Context, *domain.SLAPolicy) error { return nil }
func (fakePolicyRepo) GetByID(context.Context, string) (*domain.SLAPolicy, error) {
	return nil, pgx.ErrNoRows
}
func (f fakePolicyRepo) FindActive(_ context.Context, departmentID int64, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	for _, policy := range f.policies {
		if policy.IsActive && policy.DepartmentID == departmentID && policy.Priority == priority {
			copied := policy
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}
func (fakePolicyRepo) List(context.Context) ([]domain.SLAPolicy, error) { return nil, nil }

type fakeTrackingRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.SLATracking
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{rows: make(map[string]*domain.SLATracking)}
}

func (f *fakeTrackingRepo) Create(_ context.Context, tracking *domain.SLATracking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[tracking.TicketID]; ok {
		return nil
	}
	copied := *tracking
	copied.ID = "track-" + tracking.TicketID
	f.rows[tracking.TicketID] = &copied
	return nil
}

func (f *fakeTrackingRepo) GetByTicket(_ context.Context, ticketID string) (*domain.SLATracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (f *fakeTrackingRepo) UpdateDueAt(_ context.Context, trackingID string, kind domain.DeadlineKind, dueAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID != trackingID {
			continue
		}
		if kind == domain.DeadlineFirstResponse {
			row.FirstResponseDueAt = dueAt
		} else {
			row.ResolutionDueAt = dueAt
		}
		return nil
	}
	return pgx.ErrNoRows
}

func (f *fakeTrackingRepo) MarkWarned(context.Context, string, domain.DeadlineKind, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeTrackingRepo) MarkBreached(context.Context, string, domain.DeadlineKind, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeTrackingRepo) ListOpenForSweep(context.Context, int, int) ([]repository.SweepItem, error) {
	return nil, nil
}

func (f *fakeTrackingRepo) List(context.Context, int, int) ([]domain.SLATracking, error) {
	return nil, nil
}
