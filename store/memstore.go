package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

// MemStore is an in-memory Store implementation. It is
// the store this repository's cmd/solod CLI uses for local operation, and
// the one every package's tests exercise.
type MemStore struct {
	mu sync.RWMutex
	db memData
}

type memData struct {
	chains      map[ibc.ChainID]*ChainState
	chainKeys   map[ibc.ChainID][]ChainKey
	operations  map[ibc.ChainID][]Operation
	opSeq       uint64
	clientState map[string]TendermintClientState
	consState   map[string]TendermintConsensusState
	connections map[ibc.ChainID]ConnectionDetails
	channels    map[ibc.ChainID]map[ibc.PortID]ChannelDetails
	icaAddrs    map[string]ICAAddress
}

func newMemData() memData {
	return memData{
		chains:      make(map[ibc.ChainID]*ChainState),
		chainKeys:   make(map[ibc.ChainID][]ChainKey),
		operations:  make(map[ibc.ChainID][]Operation),
		clientState: make(map[string]TendermintClientState),
		consState:   make(map[string]TendermintConsensusState),
		connections: make(map[ibc.ChainID]ConnectionDetails),
		channels:    make(map[ibc.ChainID]map[ibc.PortID]ChannelDetails),
		icaAddrs:    make(map[string]ICAAddress),
	}
}

func (d memData) clone() memData {
	out := newMemData()
	out.opSeq = d.opSeq
	for k, v := range d.chains {
		cp := *v
		out.chains[k] = &cp
	}
	for k, v := range d.chainKeys {
		out.chainKeys[k] = append([]ChainKey(nil), v...)
	}
	for k, v := range d.operations {
		out.operations[k] = append([]Operation(nil), v...)
	}
	for k, v := range d.clientState {
		out.clientState[k] = v
	}
	for k, v := range d.consState {
		out.consState[k] = v
	}
	for k, v := range d.connections {
		out.connections[k] = v
	}
	for k, v := range d.channels {
		chans := make(map[ibc.PortID]ChannelDetails, len(v))
		for pk, pv := range v {
			chans[pk] = pv
		}
		out.channels[k] = chans
	}
	for k, v := range d.icaAddrs {
		out.icaAddrs[k] = v
	}
	return out
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{db: newMemData()}
}

// Transaction returns a Tx backed by a private snapshot of the store's
// current contents; Commit swaps the snapshot back onto the parent, Rollback
// discards it. This gives the engine serializable isolation for a single
// top-level call without requiring a real database during local operation.
func (s *MemStore) Transaction(_ context.Context) (Tx, error) {
	s.mu.RLock()
	snapshot := s.db.clone()
	s.mu.RUnlock()

	return &memTx{parent: s, data: snapshot}, nil
}

type memTx struct {
	parent *MemStore
	data   memData
	done   bool
}

// Commit implements Tx.
func (t *memTx) Commit(_ context.Context) error {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.db = t.data
	t.done = true
	return nil
}

// Rollback implements Tx.
func (t *memTx) Rollback(_ context.Context) error {
	t.done = true
	return nil
}

func (t *memTx) AddChainState(ctx context.Context, cs *ChainState) error {
	return addChainState(&t.data, cs)
}
func (t *memTx) GetChainState(ctx context.Context, chainID ibc.ChainID) (*ChainState, error) {
	return getChainState(&t.data, chainID)
}
func (t *memTx) UpdateChainState(ctx context.Context, cs *ChainState) error {
	return updateChainState(&t.data, cs)
}
func (t *memTx) GetAllChainStates(ctx context.Context, limit, offset int) ([]*ChainState, error) {
	return getAllChainStates(&t.data, limit, offset)
}
func (t *memTx) AddChainKey(ctx context.Context, key ChainKey) error {
	return addChainKey(&t.data, key)
}
func (t *memTx) GetChainKeys(ctx context.Context, chainID ibc.ChainID) ([]ChainKey, error) {
	return getChainKeys(&t.data, chainID)
}
func (t *memTx) AddOperation(ctx context.Context, op Operation) error {
	return addOperation(&t.data, op)
}
func (t *memTx) GetOperations(ctx context.Context, chainID ibc.ChainID, limit, offset int) ([]Operation, error) {
	return getOperations(&t.data, chainID, limit, offset)
}
func (t *memTx) AddTendermintClientState(ctx context.Context, cs TendermintClientState) error {
	return addTendermintClientState(&t.data, cs)
}
func (t *memTx) GetTendermintClientState(ctx context.Context, clientID string) (TendermintClientState, error) {
	return getTendermintClientState(&t.data, clientID)
}
func (t *memTx) AddTendermintConsensusState(ctx context.Context, cs TendermintConsensusState) error {
	return addTendermintConsensusState(&t.data, cs)
}
func (t *memTx) GetTendermintConsensusState(ctx context.Context, clientID string, height uint64) (TendermintConsensusState, error) {
	return getTendermintConsensusState(&t.data, clientID, height)
}
func (t *memTx) AddConnection(ctx context.Context, chainID ibc.ChainID, details ConnectionDetails) error {
	return addConnection(&t.data, chainID, details)
}
func (t *memTx) GetConnection(ctx context.Context, chainID ibc.ChainID) (ConnectionDetails, error) {
	return getConnection(&t.data, chainID)
}
func (t *memTx) UpdateConnection(ctx context.Context, chainID ibc.ChainID, details ConnectionDetails) error {
	return updateConnection(&t.data, chainID, details)
}
func (t *memTx) AddChannel(ctx context.Context, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error {
	return addChannel(&t.data, chainID, portID, details)
}
func (t *memTx) GetChannel(ctx context.Context, chainID ibc.ChainID, portID ibc.PortID) (ChannelDetails, error) {
	return getChannel(&t.data, chainID, portID)
}
func (t *memTx) UpdateChannel(ctx context.Context, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error {
	return updateChannel(&t.data, chainID, portID, details)
}
func (t *memTx) AddICAAddress(ctx context.Context, addr ICAAddress) error {
	return addICAAddress(&t.data, addr)
}
func (t *memTx) GetICAAddress(ctx context.Context, chainID ibc.ChainID, connectionID ibc.ConnectionID, portID ibc.PortID) (ICAAddress, error) {
	return getICAAddress(&t.data, chainID, connectionID, portID)
}
func (t *memTx) UpdateICAAddress(ctx context.Context, addr ICAAddress) error {
	return updateICAAddress(&t.data, addr)
}
func (t *memTx) Delete(ctx context.Context, chainID ibc.ChainID) error {
	return deleteChain(&t.data, chainID)
}

// --- MemStore direct (non-transactional) methods, delegating to the same
// pure functions under the store-wide lock. ---

func (s *MemStore) AddChainState(_ context.Context, cs *ChainState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addChainState(&s.db, cs)
}

func (s *MemStore) GetChainState(_ context.Context, chainID ibc.ChainID) (*ChainState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getChainState(&s.db, chainID)
}

func (s *MemStore) UpdateChainState(_ context.Context, cs *ChainState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateChainState(&s.db, cs)
}

func (s *MemStore) GetAllChainStates(_ context.Context, limit, offset int) ([]*ChainState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAllChainStates(&s.db, limit, offset)
}

func (s *MemStore) AddChainKey(_ context.Context, key ChainKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addChainKey(&s.db, key)
}

func (s *MemStore) GetChainKeys(_ context.Context, chainID ibc.ChainID) ([]ChainKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getChainKeys(&s.db, chainID)
}

func (s *MemStore) AddOperation(_ context.Context, op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addOperation(&s.db, op)
}

func (s *MemStore) GetOperations(_ context.Context, chainID ibc.ChainID, limit, offset int) ([]Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getOperations(&s.db, chainID, limit, offset)
}

func (s *MemStore) AddTendermintClientState(_ context.Context, cs TendermintClientState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addTendermintClientState(&s.db, cs)
}

func (s *MemStore) GetTendermintClientState(_ context.Context, clientID string) (TendermintClientState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTendermintClientState(&s.db, clientID)
}

func (s *MemStore) AddTendermintConsensusState(_ context.Context, cs TendermintConsensusState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addTendermintConsensusState(&s.db, cs)
}

func (s *MemStore) GetTendermintConsensusState(_ context.Context, clientID string, height uint64) (TendermintConsensusState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTendermintConsensusState(&s.db, clientID, height)
}

func (s *MemStore) AddConnection(_ context.Context, chainID ibc.ChainID, details ConnectionDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addConnection(&s.db, chainID, details)
}

func (s *MemStore) GetConnection(_ context.Context, chainID ibc.ChainID) (ConnectionDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getConnection(&s.db, chainID)
}

func (s *MemStore) UpdateConnection(_ context.Context, chainID ibc.ChainID, details ConnectionDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateConnection(&s.db, chainID, details)
}

func (s *MemStore) AddChannel(_ context.Context, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addChannel(&s.db, chainID, portID, details)
}

func (s *MemStore) GetChannel(_ context.Context, chainID ibc.ChainID, portID ibc.PortID) (ChannelDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getChannel(&s.db, chainID, portID)
}

func (s *MemStore) UpdateChannel(_ context.Context, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateChannel(&s.db, chainID, portID, details)
}

func (s *MemStore) AddICAAddress(_ context.Context, addr ICAAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addICAAddress(&s.db, addr)
}

func (s *MemStore) GetICAAddress(_ context.Context, chainID ibc.ChainID, connectionID ibc.ConnectionID, portID ibc.PortID) (ICAAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getICAAddress(&s.db, chainID, connectionID, portID)
}

func (s *MemStore) UpdateICAAddress(_ context.Context, addr ICAAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateICAAddress(&s.db, addr)
}

func (s *MemStore) Delete(_ context.Context, chainID ibc.ChainID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteChain(&s.db, chainID)
}

// --- pure functions over memData, shared by MemStore and memTx ---

func addChainState(d *memData, cs *ChainState) error {
	if _, ok := d.chains[cs.ID]; ok {
		return ErrChainAlreadyExists
	}
	cp := *cs
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	d.chains[cs.ID] = &cp
	return nil
}

func getChainState(d *memData, chainID ibc.ChainID) (*ChainState, error) {
	cs, ok := d.chains[chainID]
	if !ok {
		return nil, ErrChainNotFound
	}
	cp := *cs
	return &cp, nil
}

func updateChainState(d *memData, cs *ChainState) error {
	if _, ok := d.chains[cs.ID]; !ok {
		return ErrChainNotFound
	}
	cp := *cs
	cp.UpdatedAt = time.Now().UTC()
	d.chains[cs.ID] = &cp
	return nil
}

func getAllChainStates(d *memData, limit, offset int) ([]*ChainState, error) {
	all := make([]*ChainState, 0, len(d.chains))
	for _, cs := range d.chains {
		cp := *cs
		all = append(all, &cp)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func addChainKey(d *memData, key ChainKey) error {
	key.CreatedAt = time.Now().UTC()
	d.chainKeys[key.ChainID] = append(d.chainKeys[key.ChainID], key)
	return nil
}

func getChainKeys(d *memData, chainID ibc.ChainID) ([]ChainKey, error) {
	return append([]ChainKey(nil), d.chainKeys[chainID]...), nil
}

func addOperation(d *memData, op Operation) error {
	d.opSeq++
	op.ID = d.opSeq
	op.CreatedAt = time.Now().UTC()
	d.operations[op.ChainID] = append(d.operations[op.ChainID], op)
	return nil
}

func getOperations(d *memData, chainID ibc.ChainID, limit, offset int) ([]Operation, error) {
	ops := d.operations[chainID]
	// newest first
	reversed := make([]Operation, len(ops))
	for i, op := range ops {
		reversed[len(ops)-1-i] = op
	}
	if offset >= len(reversed) {
		return nil, nil
	}
	end := len(reversed)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return reversed[offset:end], nil
}

func addTendermintClientState(d *memData, cs TendermintClientState) error {
	d.clientState[cs.ClientID] = cs
	return nil
}

func getTendermintClientState(d *memData, clientID string) (TendermintClientState, error) {
	cs, ok := d.clientState[clientID]
	if !ok {
		return TendermintClientState{}, ErrClientStateNotFound
	}
	return cs, nil
}

func addTendermintConsensusState(d *memData, cs TendermintConsensusState) error {
	d.consState[consStateKey(cs.ClientID, cs.Height)] = cs
	return nil
}

func getTendermintConsensusState(d *memData, clientID string, height uint64) (TendermintConsensusState, error) {
	cs, ok := d.consState[consStateKey(clientID, height)]
	if !ok {
		return TendermintConsensusState{}, ErrConsensusStateNotFound
	}
	return cs, nil
}

func consStateKey(clientID string, height uint64) string {
	return clientID + "@" + strconv.FormatUint(height, 10)
}

func addConnection(d *memData, chainID ibc.ChainID, details ConnectionDetails) error {
	d.connections[chainID] = details
	return nil
}

func getConnection(d *memData, chainID ibc.ChainID) (ConnectionDetails, error) {
	c, ok := d.connections[chainID]
	if !ok {
		return ConnectionDetails{}, ErrConnectionNotFound
	}
	return c, nil
}

func updateConnection(d *memData, chainID ibc.ChainID, details ConnectionDetails) error {
	if _, ok := d.connections[chainID]; !ok {
		return ErrConnectionNotFound
	}
	d.connections[chainID] = details
	return nil
}

func addChannel(d *memData, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error {
	if d.channels[chainID] == nil {
		d.channels[chainID] = make(map[ibc.PortID]ChannelDetails)
	}
	d.channels[chainID][portID] = details
	return nil
}

func getChannel(d *memData, chainID ibc.ChainID, portID ibc.PortID) (ChannelDetails, error) {
	chans, ok := d.channels[chainID]
	if !ok {
		return ChannelDetails{}, ErrChannelNotFound
	}
	c, ok := chans[portID]
	if !ok {
		return ChannelDetails{}, ErrChannelNotFound
	}
	return c, nil
}

func updateChannel(d *memData, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error {
	chans, ok := d.channels[chainID]
	if !ok {
		return ErrChannelNotFound
	}
	if _, ok := chans[portID]; !ok {
		return ErrChannelNotFound
	}
	chans[portID] = details
	return nil
}

func icaKey(chainID ibc.ChainID, connectionID ibc.ConnectionID, portID ibc.PortID) string {
	return chainID.String() + "/" + string(connectionID) + "/" + string(portID)
}

func addICAAddress(d *memData, addr ICAAddress) error {
	d.icaAddrs[icaKey(addr.ChainID, addr.ConnectionID, addr.PortID)] = addr
	return nil
}

func getICAAddress(d *memData, chainID ibc.ChainID, connectionID ibc.ConnectionID, portID ibc.PortID) (ICAAddress, error) {
	a, ok := d.icaAddrs[icaKey(chainID, connectionID, portID)]
	if !ok {
		return ICAAddress{}, ErrICAAddressNotFound
	}
	return a, nil
}

func updateICAAddress(d *memData, addr ICAAddress) error {
	key := icaKey(addr.ChainID, addr.ConnectionID, addr.PortID)
	if _, ok := d.icaAddrs[key]; !ok {
		return ErrICAAddressNotFound
	}
	d.icaAddrs[key] = addr
	return nil
}

func deleteChain(d *memData, chainID ibc.ChainID) error {
	delete(d.chains, chainID)
	delete(d.chainKeys, chainID)
	delete(d.operations, chainID)
	delete(d.connections, chainID)
	delete(d.channels, chainID)
	for k, a := range d.icaAddrs {
		if a.ChainID == chainID {
			delete(d.icaAddrs, k)
		}
	}
	return nil
}

var _ TransactionProvider = (*MemStore)(nil)
var _ Tx = (*memTx)(nil)
