package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/observability"
	"github.com/spec-kit/automation-service/internal/repository"
	"github.com/spec-kit/automation-service/internal/rules"
)

// RuleSource supplies the active rule set for evaluation. The cached source
// satisfies this in production; tests inject a fixture.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]domain.AutomationRule, error)
}

// Engine evaluates the active rule set against a ticket and applies the
// actions of every matching rule in deterministic order.
type Engine struct {
	ruleSource RuleSource
	tickets    repository.TicketReadRepository
	executor   *Executor
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewEngine constructs the engine.
func NewEngine(ruleSource RuleSource, tickets repository.TicketReadRepository, executor *Executor, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{ruleSource: ruleSource, tickets: tickets, executor: executor, logger: logger, metrics: metrics}
}

// ProcessEvent runs the full match-then-apply cycle for one ticket. Rules
// apply in (priority, id) order, so when two rules set the same field the
// later one wins. Any failure inside a single action is contained there.
func (e *Engine) ProcessEvent(ctx context.Context, trigger domain.Trigger, ticketID string) []ActionResult {
	snapshot, err := e.tickets.GetSnapshot(ctx, ticketID)
	if err != nil {
		e.logger.Warn("cannot load ticket for rule evaluation",
			zap.String("ticket_id", ticketID),
			zap.String("trigger", string(trigger)),
			zap.Error(err))
		return nil
	}

	ruleSet, err := e.ruleSource.ActiveRules(ctx)
	if err != nil {
		e.logger.Warn("cannot load active rules",
			zap.String("trigger", string(trigger)),
			zap.Error(err))
		return nil
	}

	matched, diagnostics := rules.Match(trigger, ruleSet, snapshot)
	for _, diag := range diagnostics {
		e.logger.Warn("condition skipped during evaluation",
			zap.String("rule_id", diag.RuleID),
			zap.String("field", string(diag.Condition.Field)),
			zap.String("reason", diag.Reason))
	}

	var results []ActionResult
	for _, rule := range matched {
		e.metrics.RecordRuleMatched(string(trigger))
		e.logger.Info("rule matched",
			zap.String("rule_id", rule.ID),
			zap.String("rule_name", rule.Name),
			zap.String("ticket_id", ticketID),
			zap.String("trigger", string(trigger)))
		for _, action := range rule.Actions {
			results = append(results, e.executor.Apply(ctx, rule.ID, action, snapshot))
		}
	}
	return results
}
