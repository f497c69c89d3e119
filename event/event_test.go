package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChanSinkForwardsEvents(t *testing.T) {
	sink := NewChanSink(2)
	sink.Notify(Event{Kind: KindChainAdded})
	sink.Notify(Event{Kind: KindTokensMinted})

	require.Equal(t, KindChainAdded, (<-sink.C).Kind)
	require.Equal(t, KindTokensMinted, (<-sink.C).Kind)
}

func TestChanSinkDropsWhenBufferFull(t *testing.T) {
	sink := NewChanSink(1)
	sink.Notify(Event{Kind: KindChainAdded})
	// must not block even though the buffer is full
	sink.Notify(Event{Kind: KindTokensMinted})

	require.Len(t, sink.C, 1)
	require.Equal(t, KindChainAdded, (<-sink.C).Kind)
}

func TestNopSinkDiscards(t *testing.T) {
	var sink Sink = NopSink{}
	require.NotPanics(t, func() { sink.Notify(Event{Kind: KindSignerUpdated}) })
}
