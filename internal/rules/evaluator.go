// Package rules implements pure condition evaluation and rule matching.
// Nothing in this package performs I/O or mutates state, so callers may run
// it from any goroutine without synchronization.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/automation-service/internal/domain"
)

// Matches evaluates a single condition against a ticket snapshot. It never
// fails: an unknown field or operator, or a non-numeric value against a
// numeric field, evaluates to false and returns a diagnostic string for the
// caller to log.
//
// Comparison policy: equals/not_equals trim surrounding whitespace and
// compare case-sensitively; contains/starts_with/ends_with fold case. The
// departmentId field is compared numerically after parsing the condition
// value, with the textual operators applied to the decimal form.
func Matches(cond domain.Condition, snapshot *domain.TicketSnapshot) (bool, string) {
	value := strings.TrimSpace(cond.Value)

	var actual string
	switch cond.Field {
	case domain.FieldSubject:
		actual = snapshot.Subject
	case domain.FieldPriority:
		actual = string(snapshot.Priority)
	case domain.FieldStatus:
		actual = string(snapshot.Status)
	case domain.FieldRequesterEmail:
		actual = snapshot.RequesterEmail
	case domain.FieldDepartmentID:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false, fmt.Sprintf("non-numeric value %q for field %s", cond.Value, cond.Field)
		}
		actual = strconv.FormatInt(snapshot.DepartmentID, 10)
		value = strconv.FormatInt(parsed, 10)
	default:
		return false, fmt.Sprintf("unknown condition field %q", cond.Field)
	}

	actual = strings.TrimSpace(actual)

	switch cond.Operator {
	case domain.OperatorEquals:
		return actual == value, ""
	case domain.OperatorNotEquals:
		return actual != value, ""
	case domain.OperatorContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(value)), ""
	case domain.OperatorStartsWith:
		return strings.HasPrefix(strings.ToLower(actual), strings.ToLower(value)), ""
	case domain.OperatorEndsWith:
		return strings.HasSuffix(strings.ToLower(actual), strings.ToLower(value)), ""
	default:
		return false, fmt.Sprintf("unknown condition operator %q", cond.Operator)
	}
}
