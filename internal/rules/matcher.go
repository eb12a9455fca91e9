package rules

import (
	"sort"

	"github.com/spec-kit/automation-service/internal/domain"
)

// Diagnostic reports a condition that could not be evaluated. Evaluation
// treats such conditions as non-matching; the caller decides how to log.
type Diagnostic struct {
	RuleID    string
	Condition domain.Condition
	Reason    string
}

// Match returns the rules that fire for the given trigger and snapshot,
// sorted ascending by priority with ties broken by id so repeated evaluation
// is deterministic. A rule matches when it is active, registered for the
// trigger, and every condition holds (conjunction). A rule with zero
// conditions matches unconditionally; that is a deliberate catch-all policy.
func Match(trigger domain.Trigger, ruleSet []domain.AutomationRule, snapshot *domain.TicketSnapshot) ([]domain.AutomationRule, []Diagnostic) {
	var matched []domain.AutomationRule
	var diags []Diagnostic

	for _, rule := range ruleSet {
		if !rule.IsActive || rule.Trigger != trigger {
			continue
		}
		all := true
		for _, cond := range rule.Conditions {
			ok, reason := Matches(cond, snapshot)
			if reason != "" {
				diags = append(diags, Diagnostic{RuleID: rule.ID, Condition: cond, Reason: reason})
			}
			if !ok {
				all = false
				break
			}
		}
		if all {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority < matched[j].Priority
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, diags
}
