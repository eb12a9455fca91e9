package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketLocksSerializeSameKey(t *testing.T) {
	locks := newTicketLocks()
	const workers = 50

	var counter int // protected only by the ticket lock
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("t-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestTicketLocksReleaseCleansUpEntries(t *testing.T) {
	locks := newTicketLocks()

	unlockA := locks.lock("t-a")
	unlockB := locks.lock("t-b")
	unlockA()
	unlockB()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}

func TestTicketLocksIndependentKeysDoNotBlock(t *testing.T) {
	locks := newTicketLocks()

	unlockA := locks.lock("t-a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.lock("t-b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
