package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/events"
	"github.com/spec-kit/automation-service/internal/repository"
	"github.com/spec-kit/automation-service/internal/sla"
)

// Dispatcher bridges published ticket events into the rule engine and the
// SLA tracker. All work for one ticket runs under that ticket's lock, so a
// created event and a fast follow-up update never interleave.
type Dispatcher struct {
	engine    *Engine
	tracker   *sla.Tracker
	tickets   repository.TicketReadRepository
	locks     *ticketLocks
	sem       chan struct{}
	batchSize int
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// NewDispatcher constructs the dispatcher. maxConcurrent bounds how many
// tickets the hourly check processes at once; batchSize is its page size.
func NewDispatcher(engine *Engine, tracker *sla.Tracker, tickets repository.TicketReadRepository, maxConcurrent, batchSize int, logger *zap.Logger) *Dispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if batchSize < 1 {
		batchSize = 100
	}
	return &Dispatcher{
		engine:    engine,
		tracker:   tracker,
		tickets:   tickets,
		locks:     newTicketLocks(),
		sem:       make(chan struct{}, maxConcurrent),
		batchSize: batchSize,
		logger:    logger,
	}
}

// RegisterHandlers subscribes the dispatcher to the ticket event bus.
func (d *Dispatcher) RegisterHandlers(bus events.Dispatcher) {
	bus.Subscribe(events.EventTicketCreated, d.handleTicketCreated)
	bus.Subscribe(events.EventTicketUpdated, d.handleTicketUpdated)
}

func (d *Dispatcher) handleTicketCreated(ctx context.Context, event events.Event) error {
	d.withTicket(event.TicketID, func() {
		snapshot, err := d.tickets.GetSnapshot(ctx, event.TicketID)
		if err != nil {
			d.logger.Warn("cannot load created ticket",
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
			return
		}
		if err := d.tracker.EnsureTracking(ctx, snapshot); err != nil {
			d.logger.Warn("failed to open sla tracking",
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
		d.runRules(ctx, domain.TriggerTicketCreated, event.TicketID)
	})
	return nil
}

func (d *Dispatcher) handleTicketUpdated(ctx context.Context, event events.Event) error {
	d.withTicket(event.TicketID, func() {
		if payload, ok := event.Payload.(events.TicketUpdatedPayload); ok && payload.PolicyScopeChanged() {
			snapshot, err := d.tickets.GetSnapshot(ctx, event.TicketID)
			if err != nil {
				d.logger.Warn("cannot load updated ticket",
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
				return
			}
			if err := d.tracker.Recompute(ctx, snapshot); err != nil {
				d.logger.Warn("failed to recompute sla deadlines",
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}
		d.runRules(ctx, domain.TriggerTicketUpdated, event.TicketID)
	})
	return nil
}

// runRules evaluates rules for the trigger and, when any applied action moved
// the ticket to a different priority or department, recomputes the SLA due
// times against the new scope. The caller already holds the ticket lock.
func (d *Dispatcher) runRules(ctx context.Context, trigger domain.Trigger, ticketID string) {
	results := d.engine.ProcessEvent(ctx, trigger, ticketID)
	if !policyScopeTouched(results) {
		return
	}
	snapshot, err := d.tickets.GetSnapshot(ctx, ticketID)
	if err != nil {
		d.logger.Warn("cannot reload ticket after rule actions",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
		return
	}
	if err := d.tracker.Recompute(ctx, snapshot); err != nil {
		d.logger.Warn("failed to recompute sla deadlines after rule actions",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

func policyScopeTouched(results []ActionResult) bool {
	for _, result := range results {
		if !result.OK {
			continue
		}
		switch result.Action.Type {
		case domain.ActionSetPriority, domain.ActionAssignDepartment:
			return true
		}
	}
	return false
}

// HourlyCheck pages through open tickets and evaluates time-based rules for
// each one. Per-ticket work fans out across goroutines up to the configured
// concurrency bound, and HourlyCheck returns only after the whole page set
// has finished.
func (d *Dispatcher) HourlyCheck(ctx context.Context) error {
	var pass sync.WaitGroup
	for offset := 0; ; offset += d.batchSize {
		if err := ctx.Err(); err != nil {
			break
		}
		ids, err := d.tickets.ListOpenIDs(ctx, d.batchSize, offset)
		if err != nil {
			pass.Wait()
			return err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			d.sem <- struct{}{}
			pass.Add(1)
			go func(ticketID string) {
				defer pass.Done()
				defer func() { <-d.sem }()
				d.withTicket(ticketID, func() {
					d.runRules(ctx, domain.TriggerHourlyCheck, ticketID)
				})
			}(id)
		}
		if len(ids) < d.batchSize {
			break
		}
	}
	pass.Wait()
	return nil
}

// Drain blocks until every in-flight ticket handler has finished. Called
// during shutdown after the event bus stops publishing.
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}

func (d *Dispatcher) withTicket(ticketID string, fn func()) {
	d.wg.Add(1)
	defer d.wg.Done()
	unlock := d.locks.lock(ticketID)
	defer unlock()
	fn()
}
