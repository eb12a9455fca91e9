package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "OPEN"
	TicketStatusInProgress       TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingRequester TicketStatus = "WAITING_REQUESTER"
	TicketStatusResolved         TicketStatus = "RESOLVED"
	TicketStatusClosed           TicketStatus = "CLOSED"
	TicketStatusCancelled        TicketStatus = "CANCELLED"
)

// OpenStatuses lists states in which tickets are still worked on and
// therefore subject to automation sweeps and SLA monitoring.
var OpenStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusWaitingRequester,
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketSnapshot is the read-only projection of a ticket consumed by the
// automation engine and SLA monitor. The ticket platform owns the full
// aggregate; this service never writes it outside the narrow mutator port.
type TicketSnapshot struct {
	TicketID        string
	Subject         string
	Priority        TicketPriority
	DepartmentID    int64
	Status          TicketStatus
	RequesterEmail  string
	AssigneeID      *string
	Tags            []string
	CreatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
}

// FirstResponded reports whether the first-response milestone occurred.
func (t *TicketSnapshot) FirstResponded() bool {
	return t.FirstResponseAt != nil
}

// Resolved reports whether the resolution milestone occurred.
func (t *TicketSnapshot) Resolved() bool {
	if t.ResolvedAt != nil {
		return true
	}
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// IsOpen reports whether the ticket is still in an active state.
func (t *TicketSnapshot) IsOpen() bool {
	for _, status := range OpenStatuses {
		if t.Status == status {
			return true
		}
	}
	return false
}
