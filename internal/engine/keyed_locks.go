package engine

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// ticketLocks hands out one mutex per ticket id so events for the same
// ticket run strictly in sequence while distinct tickets proceed in
// parallel. Entries are reference counted and removed once released.
type ticketLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func newTicketLocks() *ticketLocks {
	return &ticketLocks{entries: make(map[string]*lockEntry)}
}

// lock blocks until the ticket's mutex is held and returns the release
// function. The caller must invoke the release exactly once.
func (l *ticketLocks) lock(ticketID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[ticketID]
	if !ok {
		entry = &lockEntry{}
		l.entries[ticketID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, ticketID)
		}
		l.mu.Unlock()
	}
}
