package domain

import "time"

// NotificationKind categorizes enqueued notification requests.
type NotificationKind string

const (
	NotificationRuleTriggered NotificationKind = "RULE_TRIGGERED"
	NotificationSLAAtRisk     NotificationKind = "SLA_AT_RISK"
	NotificationSLABreached   NotificationKind = "SLA_BREACHED"
)

// Notification is a delivery request handed to the notification pipeline.
// Delivery transport is owned elsewhere; this service only enqueues.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	TicketID  string           `json:"ticket_id"`
	Recipient string           `json:"recipient,omitempty"`
	Template  string           `json:"template,omitempty"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}
