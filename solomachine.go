// Package solomachine wires the identifier model, proof constructor,
// transaction builder, light client, handshake engine, and packet engine
// into a single process-wide Engine bundling the external collaborators.
package solomachine

import (
	"context"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/handshake"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/packet"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

var codespace = "solomachine"

// ErrNodeIdentityMismatch is returned by AddChain when the live RPC status
// query's node id does not match the caller-supplied expectation.
var ErrNodeIdentityMismatch = errorsmod.Register(codespace, 2, "reported node identity does not match expected node id")

// Engine bundles the protocol engine's external collaborators and the two
// per-domain sub-engines, one for handshakes and one for packets.
type Engine struct {
	Store  store.TransactionProvider
	Signer signing.Signer
	RPC    rpcclient.Client
	Events event.Sink
	Logger log.Logger

	handshake *handshake.Engine
	packet    *packet.Engine

	mu    sync.Mutex
	locks map[ibc.ChainID]*sync.Mutex
}

// New constructs an Engine. Panics if store, signer, or rpc are nil.
func New(st store.TransactionProvider, signer signing.Signer, rpc rpcclient.Client, sink event.Sink, logger log.Logger) *Engine {
	if st == nil {
		panic("solomachine: store must not be nil")
	}
	if signer == nil {
		panic("solomachine: signer must not be nil")
	}
	if rpc == nil {
		panic("solomachine: rpc client must not be nil")
	}
	if sink == nil {
		sink = event.NopSink{}
	}
	return &Engine{
		Store:     st,
		Signer:    signer,
		RPC:       rpc,
		Events:    sink,
		Logger:    logger,
		handshake: handshake.NewEngine(rpc, signer, st, sink, logger),
		packet:    packet.NewEngine(rpc, signer, st, sink, logger),
		locks:     make(map[ibc.ChainID]*sync.Mutex),
	}
}

// lock serializes AddChain/CloseChannel calls against each other. AddChain
// only ever touches a not-yet-existing ChainState and CloseChannel
// reads/writes ConnectionDetails.Channels, so a registry independent of the
// sub-engines' own per-chain locks is sufficient.
func (e *Engine) lock(chainID ibc.ChainID) func() {
	e.mu.Lock()
	l, ok := e.locks[chainID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[chainID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// AddChain registers a remote chain: it confirms
// node identity via a live RPC status query, then persists a freshly
// registered ChainState with sequence=1 and no ConnectionDetails.
func (e *Engine) AddChain(ctx context.Context, chainID ibc.ChainID, expectedNodeID string, cfg store.ChainConfig, consensusTimestamp time.Time) (*store.ChainState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	unlock := e.lock(chainID)
	defer unlock()

	status, err := e.RPC.Status(ctx)
	if err != nil {
		return nil, err
	}
	nodeID := string(status.NodeInfo.ID())
	if expectedNodeID != "" && nodeID != expectedNodeID {
		return nil, errorsmod.Wrapf(ErrNodeIdentityMismatch, "expected %s, got %s", expectedNodeID, nodeID)
	}

	now := time.Now().UTC()
	cs := &store.ChainState{
		ID:                 chainID,
		NodeID:             nodeID,
		Config:             cfg,
		ConsensusTimestamp: consensusTimestamp,
		Sequence:           1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.Store.AddChainState(ctx, cs); err != nil {
		return nil, err
	}

	e.Events.Notify(event.Event{Kind: event.KindChainAdded, ChainID: chainID})
	return cs, nil
}

// Connect drives the full handshake for chainID; see handshake.Engine.Connect.
func (e *Engine) Connect(ctx context.Context, chainID ibc.ChainID, force bool, requestID *string) (*store.ChainState, error) {
	return e.handshake.Connect(ctx, chainID, force, requestID)
}
