package billing

import (
	"sync"
)

// cardLocks serializes engine operations per card. Two simultaneous
// purchases on the same card must not both pass the credit check against a
// stale available value; operations on different cards never contend.
type cardLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCardLocks() *cardLocks {
	return &cardLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the given card id and returns its unlock
// function. Lock entries are never removed; the set of cards is small.
func (c *cardLocks) acquire(cardID string) func() {
	c.mu.Lock()
	l, ok := c.locks[cardID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[cardID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
