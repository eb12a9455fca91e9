// Package sla computes ticket deadlines and monitors them for warning and
// breach transitions.
package sla

import "time"

// DueAt computes a deadline as plain arithmetic over the ticket creation
// time. Clocks run continuously from creation; WAITING_REQUESTER does not
// pause them.
func DueAt(createdAt time.Time, minutes int) time.Time {
	return createdAt.Add(time.Duration(minutes) * time.Minute)
}

// WarningAt returns the instant at which a deadline becomes at-risk: the
// point where warningPercent of the window between creation and the due time
// has elapsed.
func WarningAt(createdAt, dueAt time.Time, warningPercent int) time.Time {
	if warningPercent <= 0 {
		return createdAt
	}
	if warningPercent >= 100 {
		return dueAt
	}
	window := dueAt.Sub(createdAt)
	return createdAt.Add(window * time.Duration(warningPercent) / 100)
}
