// Package engine orchestrates rule matching and action execution per
// triggering ticket event.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/observability"
	"github.com/spec-kit/automation-service/internal/repository"
)

// Notifier enqueues a notification request without blocking on delivery.
type Notifier interface {
	Enqueue(ctx context.Context, n domain.Notification)
}

// ActionResult records one action application. Failures are data, not
// control flow: they never abort sibling actions or the triggering event.
type ActionResult struct {
	RuleID string
	Action domain.Action
	OK     bool
	Err    error
}

// Executor applies a single action to a ticket. Every application is written
// to the audit log with old/new values so replays can be diagnosed.
type Executor struct {
	tickets  repository.TicketMutationRepository
	audit    repository.AuditRepository
	notifier Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewExecutor constructs the executor.
func NewExecutor(tickets repository.TicketMutationRepository, audit repository.AuditRepository, notifier Notifier, logger *zap.Logger, metrics *observability.Metrics) *Executor {
	return &Executor{tickets: tickets, audit: audit, notifier: notifier, logger: logger, metrics: metrics}
}

// Apply executes one action against the ticket. A malformed param shape
// degrades to a logged no-op; a side-effect failure is recorded in the
// result. Apply never panics and never returns an error to the caller.
func (e *Executor) Apply(ctx context.Context, ruleID string, action domain.Action, snapshot *domain.TicketSnapshot) ActionResult {
	result := ActionResult{RuleID: ruleID, Action: action}

	if err := action.Validate(); err != nil {
		e.logger.Warn("skipping malformed action",
			zap.String("rule_id", ruleID),
			zap.String("action_type", string(action.Type)),
			zap.Error(err))
		e.metrics.RecordActionApplied(string(action.Type), false)
		result.Err = err
		return result
	}

	var oldValue, newValue map[string]any
	var err error

	switch action.Type {
	case domain.ActionAssignDepartment:
		var old int64
		old, err = e.tickets.AssignDepartment(ctx, snapshot.TicketID, *action.Params.DepartmentID)
		oldValue = map[string]any{"department_id": old}
		newValue = map[string]any{"department_id": *action.Params.DepartmentID}
	case domain.ActionAssignUser:
		var old *string
		old, err = e.tickets.AssignUser(ctx, snapshot.TicketID, *action.Params.UserID)
		oldValue = map[string]any{"assignee_id": old}
		newValue = map[string]any{"assignee_id": *action.Params.UserID}
	case domain.ActionSetPriority:
		var old domain.TicketPriority
		old, err = e.tickets.SetPriority(ctx, snapshot.TicketID, *action.Params.Priority)
		oldValue = map[string]any{"priority": old}
		newValue = map[string]any{"priority": *action.Params.Priority}
	case domain.ActionAddTag:
		var old []string
		old, err = e.tickets.AddTag(ctx, snapshot.TicketID, *action.Params.Tag)
		oldValue = map[string]any{"tags": old}
		newValue = map[string]any{"tag": *action.Params.Tag}
	case domain.ActionSendNotification:
		e.notifier.Enqueue(ctx, domain.Notification{
			Kind:      domain.NotificationRuleTriggered,
			TicketID:  snapshot.TicketID,
			Recipient: *action.Params.Recipient,
			Template:  *action.Params.Template,
		})
		oldValue = map[string]any{}
		newValue = map[string]any{"template": *action.Params.Template, "recipient": *action.Params.Recipient}
	}

	if err != nil {
		e.logger.Warn("action failed",
			zap.String("rule_id", ruleID),
			zap.String("ticket_id", snapshot.TicketID),
			zap.String("action_type", string(action.Type)),
			zap.Error(err))
		e.metrics.RecordActionApplied(string(action.Type), false)
		result.Err = err
		return result
	}

	newValue["rule_id"] = ruleID
	entry := &domain.AuditEntry{
		Action:   string(action.Type),
		Entity:   domain.AuditEntityTicket,
		EntityID: snapshot.TicketID,
		OldValue: oldValue,
		NewValue: newValue,
	}
	if auditErr := e.audit.Record(ctx, entry); auditErr != nil {
		e.logger.Warn("failed to record audit entry",
			zap.String("ticket_id", snapshot.TicketID),
			zap.Error(auditErr))
	}

	e.metrics.RecordActionApplied(string(action.Type), true)
	result.OK = true
	return result
}
