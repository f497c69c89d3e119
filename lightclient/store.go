package lightclient

import (
	"encoding/binary"
	"sync"

	errorsmod "cosmossdk.io/errors"
	dbm "github.com/cometbft/cometbft-db"
	"github.com/cometbft/cometbft/types"
)

var codespace = "lightclient"

var (
	// ErrBlockNotFound is returned when no light block is stored at a height.
	ErrBlockNotFound = errorsmod.Register(codespace, 2, "light block not found")
	// ErrVerificationFailed wraps any failure from the bisection procedure.
	ErrVerificationFailed = errorsmod.Register(codespace, 3, "light client verification failed")
	// ErrTrustedHashMismatch is returned when the seed block's hash does not
	// match the configured trusted hash.
	ErrTrustedHashMismatch = errorsmod.Register(codespace, 4, "trusted hash mismatch")
	// ErrTrustedStateExpired is returned when the highest trusted/verified
	// block has fallen outside the trusting period.
	ErrTrustedStateExpired = errorsmod.Register(codespace, 5, "trusted state expired")
)

// Status tags a stored LightBlock's verification state.
type Status int

const (
	StatusUnverified Status = iota
	StatusVerified
	StatusTrusted
	StatusFailed
)

// entry is one stored light block plus its status.
type entry struct {
	block  *types.LightBlock
	status Status
}

// Store is an in-memory height-to-LightBlock map, thin wrapper over
// cometbft-db's memdb. It mirrors how github.com/cometbft/cometbft/light/store/db
// persists light blocks, but is scoped to the one cache a single verification
// pass needs rather than a durable on-disk store.
type Store struct {
	mu   sync.RWMutex
	db   dbm.DB
	data map[int64]entry
}

// NewStore constructs an empty Store backed by cometbft-db's memdb.
func NewStore() *Store {
	return &Store{
		db:   dbm.NewMemDB(),
		data: make(map[int64]entry),
	}
}

// Set records block at its own height with the given status. It also writes
// a marker into the underlying cometbft-db instance so the store's presence
// can be inspected/iterated the same way a durable light.Store would be.
func (s *Store) Set(block *types.LightBlock, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[block.Height] = entry{block: block, status: status}

	key := heightKey(block.Height)
	return s.db.Set(key, []byte{byte(status)})
}

// Get returns the block stored at height, or ErrBlockNotFound.
func (s *Store) Get(height int64) (*types.LightBlock, Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[height]
	if !ok {
		return nil, 0, errorsmod.Wrapf(ErrBlockNotFound, "height %d", height)
	}
	return e.block, e.status, nil
}

// HighestTrustedOrVerified returns the greatest height whose stored status is
// Trusted or Verified.
func (s *Store) HighestTrustedOrVerified() (*types.LightBlock, Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *entry
	var bestHeight int64
	for h, e := range s.data {
		if e.status != StatusTrusted && e.status != StatusVerified {
			continue
		}
		if best == nil || h > bestHeight {
			cp := e
			best = &cp
			bestHeight = h
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best.block, best.status, true
}

func heightKey(height int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(height))
	return b
}
