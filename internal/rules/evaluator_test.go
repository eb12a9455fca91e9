package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/automation-service/internal/domain"
)

func sampleSnapshot() *domain.TicketSnapshot {
	return &domain.TicketSnapshot{
		TicketID:       "t-1",
		Subject:        "cannot connect to vpn",
		Priority:       domain.TicketPriorityHigh,
		DepartmentID:   42,
		Status:         domain.TicketStatusOpen,
		RequesterEmail: "alice@example.com",
		CreatedAt:      time.Now(),
	}
}

func TestMatchesStringOperators(t *testing.T) {
	snap := sampleSnapshot()

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{
			name: "contains is case-insensitive",
			cond: domain.Condition{Field: domain.FieldSubject, Operator: domain.OperatorContains, Value: "VPN"},
			want: true,
		},
		{
			name: "starts_with is case-insensitive",
			cond: domain.Condition{Field: domain.FieldSubject, Operator: domain.OperatorStartsWith, Value: "Cannot"},
			want: true,
		},
		{
			name: "ends_with is case-insensitive",
			cond: domain.Condition{Field: domain.FieldRequesterEmail, Operator: domain.OperatorEndsWith, Value: "@EXAMPLE.COM"},
			want: true,
		},
		{
			name: "equals is case-sensitive",
			cond: domain.Condition{Field: domain.FieldPriority, Operator: domain.OperatorEquals, Value: "high"},
			want: false,
		},
		{
			name: "equals trims whitespace",
			cond: domain.Condition{Field: domain.FieldPriority, Operator: domain.OperatorEquals, Value: " HIGH "},
			want: true,
		},
		{
			name: "not_equals",
			cond: domain.Condition{Field: domain.FieldStatus, Operator: domain.OperatorNotEquals, Value: "RESOLVED"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diag := Matches(tt.cond, snap)
			assert.Empty(t, diag)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchesDepartmentID(t *testing.T) {
	snap := sampleSnapshot()

	ok, diag := Matches(domain.Condition{
		Field: domain.FieldDepartmentID, Operator: domain.OperatorEquals, Value: "42",
	}, snap)
	assert.True(t, ok)
	assert.Empty(t, diag)

	// leading zeros normalize away before comparison
	ok, _ = Matches(domain.Condition{
		Field: domain.FieldDepartmentID, Operator: domain.OperatorEquals, Value: "042",
	}, snap)
	assert.True(t, ok)

	ok, diag = Matches(domain.Condition{
		Field: domain.FieldDepartmentID, Operator: domain.OperatorEquals, Value: "support",
	}, snap)
	assert.False(t, ok)
	assert.NotEmpty(t, diag)
}

func TestMatchesUnknownFieldOrOperator(t *testing.T) {
	snap := sampleSnapshot()

	ok, diag := Matches(domain.Condition{Field: "assignee", Operator: domain.OperatorEquals, Value: "x"}, snap)
	assert.False(t, ok)
	assert.NotEmpty(t, diag)

	ok, diag = Matches(domain.Condition{Field: domain.FieldSubject, Operator: "regex", Value: ".*"}, snap)
	assert.False(t, ok)
	assert.NotEmpty(t, diag)
}
