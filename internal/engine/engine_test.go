package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/observability"
)

func priorityAction(p domain.TicketPriority) domain.Action {
	return domain.Action{Type: domain.ActionSetPriority, Params: domain.ActionParams{Priority: &p}}
}

func tagAction(tag string) domain.Action {
	return domain.Action{Type: domain.ActionAddTag, Params: domain.ActionParams{Tag: &tag}}
}

func newTestEngine(tickets *fakeTickets, ruleSet []domain.AutomationRule) (*Engine, *fakeAudit) {
	audit := &fakeAudit{}
	metrics := observability.NewMetrics()
	executor := NewExecutor(tickets, audit, &fakeNotifier{}, zap.NewNop(), metrics)
	return NewEngine(&fakeRuleSource{rules: ruleSet}, tickets, executor, zap.NewNop(), metrics), audit
}

func TestProcessEventAppliesRulesInPriorityOrder(t *testing.T) {
	tickets := newFakeTickets(sampleSnapshot("t-1"))
	ruleSet := []domain.AutomationRule{
		{ID: "r-b", Name: "late", Trigger: domain.TriggerTicketCreated, IsActive: true, Priority: 20,
			Actions: []domain.Action{priorityAction(domain.TicketPriorityHigh), tagAction("late")}},
		{ID: "r-a", Name: "early", Trigger: domain.TriggerTicketCreated, IsActive: true, Priority: 10,
			Actions: []domain.Action{priorityAction(domain.TicketPriorityUrgent), tagAction("early")}},
	}
	engine, _ := newTestEngine(tickets, ruleSet)

	results := engine.ProcessEvent(context.Background(), domain.TriggerTicketCreated, "t-1")

	require.Len(t, results, 4)
	assert.Equal(t, "r-a", results[0].RuleID)
	assert.Equal(t, "r-b", results[2].RuleID)
	// both rules set priority; the higher priority value runs last and wins
	assert.Equal(t, domain.TicketPriorityHigh, tickets.snapshots["t-1"].Priority)
	assert.Equal(t, []string{"early", "late"}, tickets.snapshots["t-1"].Tags)
}

func TestProcessEventFailedActionDoesNotBlockSiblings(t *testing.T) {
	tickets := newFakeTickets(sampleSnapshot("t-1"))
	tickets.failUser = true
	ruleSet := []domain.AutomationRule{
		{ID: "r-1", Name: "assign and tag", Trigger: domain.TriggerTicketCreated, IsActive: true, Priority: 10,
			Actions: []domain.Action{
				{Type: domain.ActionAssignUser, Params: domain.ActionParams{UserID: strptr("staff-9")}},
				tagAction("triaged"),
			}},
	}
	engine, _ := newTestEngine(tickets, ruleSet)

	results := engine.ProcessEvent(context.Background(), domain.TriggerTicketCreated, "t-1")

	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.True(t, results[1].OK)
	assert.Equal(t, []string{"triaged"}, tickets.snapshots["t-1"].Tags)
}

func TestProcessEventSkipsNonMatchingRules(t *testing.T) {
	tickets := newFakeTickets(sampleSnapshot("t-1"))
	ruleSet := []domain.AutomationRule{
		{ID: "r-1", Name: "inactive", Trigger: domain.TriggerTicketCreated, IsActive: false, Priority: 10,
			Actions: []domain.Action{tagAction("never")}},
		{ID: "r-2", Name: "wrong trigger", Trigger: domain.TriggerHourlyCheck, IsActive: true, Priority: 10,
			Actions: []domain.Action{tagAction("never")}},
		{ID: "r-3", Name: "wrong subject", Trigger: domain.TriggerTicketCreated, IsActive: true, Priority: 10,
			Conditions: []domain.Condition{{Field: domain.FieldSubject, Operator: domain.OperatorContains, Value: "printer"}},
			Actions:    []domain.Action{tagAction("never")}},
	}
	engine, _ := newTestEngine(tickets, ruleSet)

	results := engine.ProcessEvent(context.Background(), domain.TriggerTicketCreated, "t-1")

	assert.Empty(t, results)
	assert.Empty(t, tickets.snapshots["t-1"].Tags)
}

func TestProcessEventUnknownTicketIsNoOp(t *testing.T) {
	tickets := newFakeTickets()
	engine, audit := newTestEngine(tickets, []domain.AutomationRule{
		{ID: "r-1", Name: "catch all", Trigger: domain.TriggerTicketCreated, IsActive: true, Priority: 10,
			Actions: []domain.Action{tagAction("any")}},
	})

	results := engine.ProcessEvent(context.Background(), domain.TriggerTicketCreated, "missing")

	assert.Empty(t, results)
	assert.Empty(t, audit.entries)
}
