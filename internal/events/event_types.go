package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spec-kit/automation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event published by the ticket platform.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DepartmentID int64                 `json:"department_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Subject      string                `json:"subject"`
}

// TicketUpdatedPayload carries old/new values of the fields the automation
// and SLA subsystems react to.
type TicketUpdatedPayload struct {
	OldPriority     domain.TicketPriority `json:"old_priority"`
	NewPriority     domain.TicketPriority `json:"new_priority"`
	OldDepartmentID int64                 `json:"old_department_id"`
	NewDepartmentID int64                 `json:"new_department_id"`
	OldStatus       domain.TicketStatus   `json:"old_status"`
	NewStatus       domain.TicketStatus   `json:"new_status"`
}

// PolicyScopeChanged reports whether the update moved the ticket to a
// different (department, priority) pair, which requires recomputing SLA due
// times.
func (p TicketUpdatedPayload) PolicyScopeChanged() bool {
	return p.OldPriority != p.NewPriority || p.OldDepartmentID != p.NewDepartmentID
}

type wireEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TicketID  string          `json:"ticket_id"`
	Actor     Actor           `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeEvent parses a ticket platform event off the wire, resolving the
// payload to the concrete type for the event kind. Unknown event types and
// events without a ticket id are rejected.
func DecodeEvent(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if wire.TicketID == "" {
		return Event{}, fmt.Errorf("decode event: missing ticket_id")
	}

	event := Event{
		ID:        wire.ID,
		Type:      wire.Type,
		TicketID:  wire.TicketID,
		Actor:     wire.Actor,
		Timestamp: wire.Timestamp,
	}

	switch wire.Type {
	case EventTicketCreated:
		var payload TicketCreatedPayload
		if len(wire.Payload) > 0 {
			if err := json.Unmarshal(wire.Payload, &payload); err != nil {
				return Event{}, fmt.Errorf("decode %s payload: %w", wire.Type, err)
			}
		}
		event.Payload = payload
	case EventTicketUpdated:
		var payload TicketUpdatedPayload
		if len(wire.Payload) > 0 {
			if err := json.Unmarshal(wire.Payload, &payload); err != nil {
				return Event{}, fmt.Errorf("decode %s payload: %w", wire.Type, err)
			}
		}
		event.Payload = payload
	default:
		return Event{}, fmt.Errorf("decode event: unsupported type %q", wire.Type)
	}

	return event, nil
}
