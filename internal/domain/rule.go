package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Trigger identifies the kind of event that causes rule evaluation.
type Trigger string

const (
	TriggerTicketCreated Trigger = "TICKET_CREATED"
	TriggerTicketUpdated Trigger = "TICKET_UPDATED"
	TriggerHourlyCheck   Trigger = "HOURLY_CHECK"
)

// ValidTrigger reports whether t is a known trigger.
func ValidTrigger(t Trigger) bool {
	switch t {
	case TriggerTicketCreated, TriggerTicketUpdated, TriggerHourlyCheck:
		return true
	}
	return false
}

// ConditionField names a ticket field a condition may inspect.
type ConditionField string

const (
	FieldSubject        ConditionField = "subject"
	FieldPriority       ConditionField = "priority"
	FieldDepartmentID   ConditionField = "departmentId"
	FieldStatus         ConditionField = "status"
	FieldRequesterEmail ConditionField = "requesterEmail"
)

// ConditionOperator names the comparison applied by a condition.
type ConditionOperator string

const (
	OperatorContains   ConditionOperator = "contains"
	OperatorEquals     ConditionOperator = "equals"
	OperatorNotEquals  ConditionOperator = "not_equals"
	OperatorStartsWith ConditionOperator = "starts_with"
	OperatorEndsWith   ConditionOperator = "ends_with"
)

// Condition is a single predicate over a ticket snapshot field.
type Condition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

// Validate rejects unknown field/operator combinations and malformed values
// at rule-save time. Evaluation keeps a defensive no-match path for rows that
// predate stricter validation.
func (c Condition) Validate() error {
	switch c.Field {
	case FieldSubject, FieldPriority, FieldDepartmentID, FieldStatus, FieldRequesterEmail:
	default:
		return fmt.Errorf("unknown condition field %q", c.Field)
	}
	switch c.Operator {
	case OperatorContains, OperatorEquals, OperatorNotEquals, OperatorStartsWith, OperatorEndsWith:
	default:
		return fmt.Errorf("unknown condition operator %q", c.Operator)
	}
	if strings.TrimSpace(c.Value) == "" {
		return fmt.Errorf("condition value required for field %q", c.Field)
	}
	if c.Field == FieldDepartmentID {
		if _, err := strconv.ParseInt(strings.TrimSpace(c.Value), 10, 64); err != nil {
			return fmt.Errorf("condition value %q is not numeric for field %q", c.Value, c.Field)
		}
	}
	return nil
}

// ActionType names a side-effecting operation applied when a rule matches.
type ActionType string

const (
	ActionAssignDepartment ActionType = "assign_department"
	ActionAssignUser       ActionType = "assign_user"
	ActionSetPriority      ActionType = "set_priority"
	ActionAddTag           ActionType = "add_tag"
	ActionSendNotification ActionType = "send_notification"
)

// ActionParams is the typed payload of an action. Exactly the fields
// required by the action type must be present; Validate enforces the shape.
type ActionParams struct {
	DepartmentID *int64          `json:"department_id,omitempty"`
	UserID       *string         `json:"user_id,omitempty"`
	Priority     *TicketPriority `json:"priority,omitempty"`
	Tag          *string         `json:"tag,omitempty"`
	Template     *string         `json:"template,omitempty"`
	Recipient    *string         `json:"recipient,omitempty"`
}

// Action pairs an action type with its validated parameter payload.
type Action struct {
	Type   ActionType   `json:"type"`
	Params ActionParams `json:"params"`
}

// Validate checks the param shape for the action type. A malformed action is
// rejected at rule-save time; at execution time it degrades to a logged no-op.
func (a Action) Validate() error {
	switch a.Type {
	case ActionAssignDepartment:
		if a.Params.DepartmentID == nil {
			return fmt.Errorf("%s requires department_id", a.Type)
		}
	case ActionAssignUser:
		if a.Params.UserID == nil || strings.TrimSpace(*a.Params.UserID) == "" {
			return fmt.Errorf("%s requires user_id", a.Type)
		}
	case ActionSetPriority:
		if a.Params.Priority == nil || !ValidPriority(*a.Params.Priority) {
			return fmt.Errorf("%s requires a valid priority", a.Type)
		}
	case ActionAddTag:
		if a.Params.Tag == nil || strings.TrimSpace(*a.Params.Tag) == "" {
			return fmt.Errorf("%s requires tag", a.Type)
		}
	case ActionSendNotification:
		if a.Params.Template == nil || strings.TrimSpace(*a.Params.Template) == "" {
			return fmt.Errorf("%s requires template", a.Type)
		}
		if a.Params.Recipient == nil || strings.TrimSpace(*a.Params.Recipient) == "" {
			return fmt.Errorf("%s requires recipient", a.Type)
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// AutomationRule is an admin-authored rule: when its trigger fires and all
// conditions hold, its actions are applied in order. The engine never mutates
// rules; admins edit them and soft-disable via IsActive.
type AutomationRule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Trigger    Trigger     `json:"trigger"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
	IsActive   bool        `json:"is_active"`
	Priority   int         `json:"priority"`
	CreatedBy  *string     `json:"created_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Validate checks the rule as a whole. A rule with zero conditions is valid
// and matches unconditionally; a rule with zero actions is rejected since it
// could never do anything.
func (r *AutomationRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name required")
	}
	if !ValidTrigger(r.Trigger) {
		return fmt.Errorf("unknown trigger %q", r.Trigger)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("rule requires at least one action")
	}
	for i, cond := range r.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	for i, action := range r.Actions {
		if err := action.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}
