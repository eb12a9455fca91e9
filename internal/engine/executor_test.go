package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/observability"
)

func sampleSnapshot(id string) *domain.TicketSnapshot {
	return &domain.TicketSnapshot{
		TicketID:       id,
		Subject:        "Cannot connect to VPN",
		Priority:       domain.TicketPriorityNormal,
		DepartmentID:   7,
		Status:         domain.TicketStatusOpen,
		RequesterEmail: "user@example.com",
		CreatedAt:      time.Now().Add(-time.Hour),
	}
}

func newTestExecutor(tickets *fakeTickets) (*Executor, *fakeAudit, *fakeNotifier) {
	audit := &fakeAudit{}
	notifier := &fakeNotifier{}
	return NewExecutor(tickets, audit, notifier, zap.NewNop(), observability.NewMetrics()), audit, notifier
}

func strptr(s string) *string { return &s }

func TestApplyMalformedActionIsNoOp(t *testing.T) {
	tickets := newFakeTickets(sampleSnapshot("t-1"))
	executor, audit, _ := newTestExecutor(tickets)

	// assign_user without userId
	result := executor.Apply(context.Background(), "r-1", domain.Action{Type: domain.ActionAssignUser}, sampleSnapshot("t-1"))

	assert.False(t, result.OK)
	assert.Error(t, result.Err)
	assert.Nil(t, tickets.snapshots["t-1"].AssigneeID)
	assert.Empty(t, audit.entries)
}

func TestApplySetPriorityRecordsOldAndNew(t *testing.T) {
	tickets := newFakeTickets(sampleSnapshot("t-1"))
	executor, audit, _ := newTestExecutor(tickets)

	urgent := domain.TicketPriorityUrgent
	action := domain.Action{Type: domain.ActionSetPriority, Params: domain.ActionParams{Priority: &urgent}}
	result := executor.Apply(context.Background(), "r-1", action, sampleSnapshot("t-1"))

	assert.True(t, result.OK)
	assert.Equal(t, domain.TicketPriorityUrgent, tickets.snapshots["t-1"].Priority)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, domain.AuditEntityTicket, entry.Entity)
	assert.Equal(t, "t-1", entry.EntityID)
	assert.Equal(t, domain.TicketPriorityNormal, entry.OldValue["priority"])
	assert.Equal(t, domain.TicketPriorityUrgent, entry.NewValue["priority"])
	assert.Equal(t, "r-1", entry.NewValue["rule_id"])
}

func TestApplyFailureDoesNotPanicOrAudit(t *testing.T) {
	tickets := newFakeTickets(sampleSnapshot("t-1"))
	tickets.failUser = true
	executor, audit, _ := newTestExecutor(tickets)

	action := domain.Action{Type: domain.ActionAssignUser, Params: domain.ActionParams{UserID: strptr("staff-9")}}
	result := executor.Apply(context.Background(), "r-1", action, sampleSnapshot("t-1"))

	assert.False(t, result.OK)
	assert.ErrorIs(t, result.Err, errAssignUser)
	assert.Empty(t, audit.entries)
}

func TestApplySendNotificationEnqueues(t *testing.T) {
	tickets := newFakeTickets(sampleSnapshot("t-1"))
	executor, _, notifier := newTestExecutor(tickets)

	action := domain.Action{Type: domain.ActionSendNotification, Params: domain.ActionParams{
		Template:  strptr("escalation"),
		Recipient: strptr("lead@example.com"),
	}}
	result := executor.Apply(context.Background(), "r-1", action, sampleSnapshot("t-1"))

	assert.True(t, result.OK)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, domain.NotificationRuleTriggered, notifier.sent[0].Kind)
	assert.Equal(t, "t-1", notifier.sent[0].TicketID)
	assert.Equal(t, "lead@example.com", notifier.sent[0].Recipient)
}
