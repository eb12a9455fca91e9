package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/config"
	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/observability"
)

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		Stream:    "helpdesk:ticket-events",
		Group:     "automation-service",
		Consumer:  "test-1",
		BatchSize: 8,
	}
}

func TestDecodeEventResolvesTypedPayloads(t *testing.T) {
	created, err := DecodeEvent([]byte(`{
		"id": "evt-1",
		"type": "ticket_created",
		"ticket_id": "t-1",
		"payload": {"department_id": 7, "priority": "HIGH", "subject": "printer down"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, EventTicketCreated, created.Type)
	assert.Equal(t, "t-1", created.TicketID)
	payload, ok := created.Payload.(TicketCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, int64(7), payload.DepartmentID)
	assert.Equal(t, domain.TicketPriorityHigh, payload.Priority)

	updated, err := DecodeEvent([]byte(`{
		"id": "evt-2",
		"type": "ticket_updated",
		"ticket_id": "t-1",
		"payload": {"old_priority": "NORMAL", "new_priority": "URGENT", "old_department_id": 7, "new_department_id": 7}
	}`))
	require.NoError(t, err)
	updatedPayload, ok := updated.Payload.(TicketUpdatedPayload)
	require.True(t, ok)
	assert.True(t, updatedPayload.PolicyScopeChanged())
}

func TestDecodeEventRejectsBadInput(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type": "ticket_deleted", "ticket_id": "t-1"}`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type": "ticket_created"}`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestHandleEntryPublishesDecodedEvent(t *testing.T) {
	bus := NewInMemoryDispatcher()
	var received []Event
	bus.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})
	consumer := NewStreamConsumer(nil, bus, testIngestConfig(), zap.NewNop(), observability.NewMetrics())

	consumer.handleEntry(context.Background(), map[string]interface{}{
		"event": `{"id": "evt-1", "type": "ticket_created", "ticket_id": "t-9", "payload": {"department_id": 3, "priority": "LOW", "subject": "slow laptop"}}`,
	})

	require.Len(t, received, 1)
	assert.Equal(t, "t-9", received[0].TicketID)
}

func TestHandleEntrySkipsMalformedEntries(t *testing.T) {
	bus := NewInMemoryDispatcher()
	var published int
	bus.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		published++
		return nil
	})
	metrics := observability.NewMetrics()
	consumer := NewStreamConsumer(nil, bus, testIngestConfig(), zap.NewNop(), metrics)

	consumer.handleEntry(context.Background(), map[string]interface{}{"other": "field"})
	consumer.handleEntry(context.Background(), map[string]interface{}{"event": "{broken"})

	assert.Zero(t, published)
	assert.Equal(t, int64(2), metrics.Snapshot()["events_ingested|unknown|false"])
}
