package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the automation and SLA
// subsystems, exposed through the admin API.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]int64)}
}

func (m *Metrics) inc(key string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
}

// RecordRuleMatched counts matched rules per trigger.
func (m *Metrics) RecordRuleMatched(trigger string) {
	m.inc("rules_matched|" + trigger)
}

// RecordActionApplied counts executed actions per type and outcome.
func (m *Metrics) RecordActionApplied(actionType string, ok bool) {
	m.inc("actions_applied|" + actionType + "|" + strconv.FormatBool(ok))
}

// RecordSLATransition counts at-risk and breach transitions per deadline.
func (m *Metrics) RecordSLATransition(kind, transition string) {
	m.inc("sla_transition|" + kind + "|" + transition)
}

// RecordSweep counts sweep executions and skips per job.
func (m *Metrics) RecordSweep(job string, skipped bool) {
	if skipped {
		m.inc("sweep_skipped|" + job)
		return
	}
	m.inc("sweep_run|" + job)
}

// RecordEventIngested counts consumed ticket events per type and outcome.
func (m *Metrics) RecordEventIngested(eventType string, ok bool) {
	m.inc("events_ingested|" + eventType + "|" + strconv.FormatBool(ok))
}

// RecordNotification counts enqueued and dropped notification requests.
func (m *Metrics) RecordNotification(kind string, dropped bool) {
	if dropped {
		m.inc("notifications_dropped|" + kind)
		return
	}
	m.inc("notifications_enqueued|" + kind)
}

// RecordRequest increments counters for HTTP requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	m.inc("http_request|" + path + "|" + method + "|" + strconv.Itoa(status))
}

// RecordError increments HTTP error counters.
func (m *Metrics) RecordError(path, method, code string) {
	m.inc("http_error|" + path + "|" + method + "|" + code)
}

// Snapshot copies the current counter values for reporting.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}
