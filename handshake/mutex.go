package handshake

import (
	"sync"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

// chainLocks serializes top-level operations per chain id; two concurrent
// calls would otherwise race on the same ChainState.Sequence.
type chainLocks struct {
	mu    sync.Mutex
	locks map[ibc.ChainID]*sync.Mutex
}

func newChainLocks() *chainLocks {
	return &chainLocks{locks: make(map[ibc.ChainID]*sync.Mutex)}
}

func (c *chainLocks) lock(chainID ibc.ChainID) func() {
	c.mu.Lock()
	l, ok := c.locks[chainID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[chainID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
