package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/repository"
)

type fakeRuleRepo struct {
	rules map[string]*domain.AutomationRule
	next  int
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[string]*domain.AutomationRule)}
}

func (f *fakeRuleRepo) Create(_ context.Context, rule *domain.AutomationRule) error {
	f.next++
	if rule.ID == "" {
		rule.ID = "r-" + string(rune('0'+f.next))
	}
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	copied := *rule
	f.rules[rule.ID] = &copied
	return nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule *domain.AutomationRule) error {
	if _, ok := f.rules[rule.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *rule
	copied.UpdatedAt = time.Now()
	f.rules[rule.ID] = &copied
	return nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.rules[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rules, id)
	return nil
}

func (f *fakeRuleRepo) SetActive(_ context.Context, id string, active bool) error {
	rule, ok := f.rules[id]
	if !ok {
		return pgx.ErrNoRows
	}
	rule.IsActive = active
	return nil
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id string) (*domain.AutomationRule, error) {
	rule, ok := f.rules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *rule
	return &copied, nil
}

func (f *fakeRuleRepo) List(_ context.Context, limit, offset int) ([]domain.AutomationRule, error) {
	var out []domain.AutomationRule
	for _, rule := range f.rules {
		out = append(out, *rule)
	}
	return out, nil
}

func (f *fakeRuleRepo) ListActive(_ context.Context) ([]domain.AutomationRule, error) {
	var out []domain.AutomationRule
	for _, rule := range f.rules {
		if rule.IsActive {
			out = append(out, *rule)
		}
	}
	return out, nil
}

type fakeCache struct {
	invalidations int
}

func (f *fakeCache) Invalidate(context.Context) { f.invalidations++ }

type fakeAudit struct {
	entries []domain.AuditEntry
}

func (f *fakeAudit) Record(_ context.Context, entry *domain.AuditEntry) error {
	entry.ID = "audit"
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) ListByEntity(context.Context, string, string, int, int) ([]domain.AuditEntry, error) {
	return append([]domain.AuditEntry(nil), f.entries...), nil
}

type fakePolicyRepo struct {
	policies map[string]*domain.SLAPolicy
	next     int
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: make(map[string]*domain.SLAPolicy)}
}

func (f *fakePolicyRepo) activeConflict(policy *domain.SLAPolicy) bool {
	if !policy.IsActive {
		return false
	}
	for _, existing := range f.policies {
		if existing.ID == policy.ID {
			continue
		}
		if existing.IsActive && existing.DepartmentID == policy.DepartmentID && existing.Priority == policy.Priority {
			return true
		}
	}
	return false
}

func (f *fakePolicyRepo) Create(_ context.Context, policy *domain.SLAPolicy) error {
	if f.activeConflict(policy) {
		return repository.ErrDuplicateActivePolicy
	}
	f.next++
	if policy.ID == "" {
		policy.ID = "p-" + string(rune('0'+f.next))
	}
	copied := *policy
	f.policies[policy.ID] = &copied
	return nil
}

func (f *fakePolicyRepo) Update(_ context.Context, policy *domain.SLAPolicy) error {
	if _, ok := f.policies[policy.ID]; !ok {
		return pgx.ErrNoRows
	}
	if f.activeConflict(policy) {
		return repository.ErrDuplicateActivePolicy
	}
	copied := *policy
	f.policies[policy.ID] = &copied
	return nil
}

func (f *fakePolicyRepo) GetByID(_ context.Context, id string) (*domain.SLAPolicy, error) {
	policy, ok := f.policies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *policy
	return &copied, nil
}

func (f *fakePolicyRepo) FindActive(_ context.Context, departmentID int64, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	for _, policy := range f.policies {
		if policy.IsActive && policy.DepartmentID == departmentID && policy.Priority == priority {
			copied := *policy
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePolicyRepo) List(_ context.Context) ([]domain.SLAPolicy, error) {
	var out []domain.SLAPolicy
	for _, policy := range f.policies {
		out = append(out, *policy)
	}
	return out, nil
}

type fakeSettings struct {
	values map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]string)}
}

func (f *fakeSettings) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return value, nil
}

func (f *fakeSettings) Set(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

type fakeTrackingRepo struct {
	rows map[string]*domain.SLATracking
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{rows: make(map[string]*domain.SLATracking)}
}

func (f *fakeTrackingRepo) Create(_ context.Context, tracking *domain.SLATracking) error {
	if _, ok := f.rows[tracking.TicketID]; ok {
		return nil
	}
	copied := *tracking
	f.rows[tracking.TicketID] = &copied
	return nil
}

func (f *fakeTrackingRepo) GetByTicket(_ context.Context, ticketID string) (*domain.SLATracking, error) {
	row, ok := f.rows[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (f *fakeTrackingRepo) UpdateDueAt(context.Context, string, domain.DeadlineKind, time.Time) error {
	return nil
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

func (f *fakeTrackingRepo) List(_ context.Context, limit, offset int) ([]domain.SLATracking, error) {
	var out []domain.SLATracking
	for _, row := range f.rows {
		out = append(out, *row)
	}
	return out, nil
}

type fakeTicketReader struct {
	snapshots map[string]*domain.TicketSnapshot
}

func (f *fakeTicketReader) GetSnapshot(_ context.Context, id string) (*domain.TicketSnapshot, error) {
	snap, ok := f.snapshots[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *snap
	return &copied, nil
}

func (f *fakeTicketReader) ListOpenIDs(context.Context, int, int) ([]string, error) {
	return nil, nil
}
