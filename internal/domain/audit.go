package domain

import "time"

// AuditEntry is an append-only record of a change made by an actor or by the
// automation engine (nil actor). OldValue/NewValue carry enough context to
// diagnose idempotent replays.
type AuditEntry struct {
	ID        string
	ActorID   *string
	Action    string
	Entity    string
	EntityID  string
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedAt time.Time
}

// Audit entity names.
const (
	AuditEntityTicket    = "ticket"
	AuditEntityRule      = "automation_rule"
	AuditEntitySLAPolicy = "sla_policy"
	AuditEntitySettings  = "settings"
)
