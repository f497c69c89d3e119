package packet

import (
	"sync"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

// chainLocks serializes top-level packet operations per chain id, mirroring
// package handshake's registry of the same shape; two concurrent mint calls
// would otherwise race on ChainState.Sequence.
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
