// Package proof implements the solo-machine's proof constructor: it
// builds the canonical SignBytes wire form for every state fact the engine
// attests to the counterparty chain, and signs it through the Signer
// collaborator.
package proof

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec/types"
	signingtypes "github.com/cosmos/cosmos-sdk/types/tx/signing"
	connectiontypes "github.com/cosmos/ibc-go/v8/modules/core/03-connection/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	solomachine "github.com/cosmos/ibc-go/v8/modules/core/02-client/migrations/v7"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// CommitmentPrefix is the fixed commitment prefix every proof path is
// applied under before being embedded in a *Data wrapper; the counterparty
// verifies against the same "ibc" prefix.
const CommitmentPrefix = "ibc"

// ProofKind tags which *Data wrapper BuildSignBytes should construct; one
// tagged-variant function covers every proof kind rather than one function
// per kind.
type ProofKind int32

const (
	KindClientState ProofKind = iota
	KindConsensusState
	KindConnectionState
	KindChannelState
	KindPacketCommitment
	KindPacketAcknowledgement
	KindPacketReceiptAbsence
	KindNextSequenceRecv
	KindHeader
)

var codespace = "proof"

var (
	// ErrSignerUnavailable is returned when the signer collaborator fails
	// before any sequence bump has been committed.
	ErrSignerUnavailable = errorsmod.Register(codespace, 2, "signer unavailable")
	// ErrEncoding wraps protobuf marshal failures, never expected in steady state.
	ErrEncoding = errorsmod.Register(codespace, 3, "protobuf encoding failure")
	// ErrChannelClosed describes a proof that requires a counterparty
	// channel id not present in ChainState.ConnectionDetails. No function
	// in this module returns it: a missing channel surfaces as
	// packet.ErrNoChannel or store.ErrConnectionNotFound.
	ErrChannelClosed = errorsmod.Register(codespace, 4, "channel closed")
)

func (k ProofKind) dataType() solomachine.DataType {
	switch k {
	case KindClientState:
		return solomachine.CLIENT
	case KindConsensusState:
		return solomachine.CONSENSUS
	case KindConnectionState:
		return solomachine.CONNECTION
	case KindChannelState:
		return solomachine.CHANNEL
	case KindPacketCommitment:
		return solomachine.PACKETCOMMITMENT
	case KindPacketAcknowledgement:
		return solomachine.PACKETACKNOWLEDGEMENT
	case KindPacketReceiptAbsence:
		return solomachine.PACKETRECEIPTABSENCE
	case KindNextSequenceRecv:
		return solomachine.NEXTSEQUENCERECV
	case KindHeader:
		return solomachine.HEADER
	default:
		return solomachine.UNSPECIFIED
	}
}

// buildData constructs the type-specific *Data wrapper {path, payload},
// protobuf-serialized, for kind. payload's concrete type must match kind
// (e.g. a *connectiontypes.ConnectionEnd for KindConnectionState).
func buildData(kind ProofKind, path ibc.Path, payload any) ([]byte, error) {
	prefixed := []byte(path.ApplyPrefix(CommitmentPrefix))

	var data proto.Message
	switch kind {
	case KindClientState:
		msg, ok := payload.(proto.Message)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected proto.Message client state, got %T", payload)
		}
		anyClientState, err := types.NewAnyWithValue(msg)
		if err != nil {
			return nil, errorsmod.Wrap(ErrEncoding, err.Error())
		}
		data = &solomachine.ClientStateData{Path: prefixed, ClientState: anyClientState}
	case KindConsensusState:
		msg, ok := payload.(proto.Message)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected proto.Message consensus state, got %T", payload)
		}
		anyConsState, err := types.NewAnyWithValue(msg)
		if err != nil {
			return nil, errorsmod.Wrap(ErrEncoding, err.Error())
		}
		data = &solomachine.ConsensusStateData{Path: prefixed, ConsensusState: anyConsState}
	case KindConnectionState:
		conn, ok := payload.(*connectiontypes.ConnectionEnd)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected *connectiontypes.ConnectionEnd, got %T", payload)
		}
		data = &solomachine.ConnectionStateData{Path: prefixed, Connection: conn}
	case KindChannelState:
		ch, ok := payload.(*channeltypes.Channel)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected *channeltypes.Channel, got %T", payload)
		}
		data = &solomachine.ChannelStateData{Path: prefixed, Channel: ch}
	case KindPacketCommitment:
		commitment, ok := payload.(RawBytes)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected RawBytes commitment, got %T", payload)
		}
		data = &solomachine.PacketCommitmentData{Path: prefixed, Commitment: commitment}
	case KindPacketAcknowledgement:
		ack, ok := payload.(RawBytes)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected RawBytes acknowledgement, got %T", payload)
		}
		data = &solomachine.PacketAcknowledgementData{Path: prefixed, Acknowledgement: ack}
	case KindPacketReceiptAbsence:
		data = &solomachine.PacketReceiptAbsenceData{Path: prefixed}
	case KindNextSequenceRecv:
		seq, ok := payload.(Uint64)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected Uint64 next-sequence-recv, got %T", payload)
		}
		data = &solomachine.NextSequenceRecvData{Path: prefixed, NextSeqRecv: uint64(seq)}
	case KindHeader:
		hd, ok := payload.(*solomachine.HeaderData)
		if !ok {
			return nil, errorsmod.Wrapf(ErrEncoding, "expected *solomachine.HeaderData, got %T", payload)
		}
		data = hd
	default:
		return nil, errorsmod.Wrapf(ErrEncoding, "unknown proof kind %d", kind)
	}

	marshaled, err := proto.Marshal(data)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}
	return marshaled, nil
}

// RawBytes is used for the payload argument of the commitment/ack proof
// kinds, which attest a plain hash/byte value rather than a protobuf
// message.
type RawBytes []byte

// Uint64 is used for the payload argument of KindNextSequenceRecv.
type Uint64 uint64

// BuildSignBytes constructs the canonical {sequence, timestamp, diversifier,
// data_type, data} SignBytes for kind, against the sequence snapshot
// explicitly passed by the caller, never read from chainState directly;
// this is what lets multi-proof messages share one sequence.
func BuildSignBytes(kind ProofKind, chainState *store.ChainState, sequence uint64, path ibc.Path, payload any) ([]byte, error) {
	data, err := buildData(kind, path, payload)
	if err != nil {
		return nil, err
	}

	signBytes := &solomachine.SignBytes{
		Sequence:    sequence,
		Timestamp:   uint64(chainState.ConsensusTimestamp.Unix()), //nolint:gosec // Unix() always non-negative for post-1970 timestamps
		Diversifier: chainState.Config.Diversifier,
		DataType:    kind.dataType(),
		Data:        data,
	}

	marshaled, err := proto.Marshal(signBytes)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}
	return marshaled, nil
}

// TimestampedSign signs the SignBytes payload, wraps the signature in a
// single-signer SignatureData envelope, then wraps that with the chain's
// consensus timestamp.
func TimestampedSign(ctx context.Context, signer signing.Signer, requestID *string, chainState *store.ChainState, signBytes []byte) ([]byte, error) {
	sig, err := signer.Sign(ctx, requestID, chainState.ID, signing.Message{Kind: signing.KindSignBytes, Data: signBytes})
	if err != nil {
		return nil, errorsmod.Wrap(ErrSignerUnavailable, err.Error())
	}

	signatureData := &signingtypes.SingleSignatureData{
		SignMode:  signingtypes.SignMode_SIGN_MODE_UNSPECIFIED,
		Signature: sig,
	}
	marshaledSigData, err := marshalSingleSignatureData(signatureData)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}

	timestamped := &solomachine.TimestampedSignatureData{
		SignatureData: marshaledSigData,
		Timestamp:     uint64(chainState.ConsensusTimestamp.Unix()), //nolint:gosec
	}

	out, err := proto.Marshal(timestamped)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}
	return out, nil
}

// Sign implements the non-timestamped signature path used only for the
// header-update message (client rotation): the raw SignatureData bytes are
// the proof.
func Sign(ctx context.Context, signer signing.Signer, requestID *string, chainID ibc.ChainID, signBytes []byte) ([]byte, error) {
	sig, err := signer.Sign(ctx, requestID, chainID, signing.Message{Kind: signing.KindSignBytes, Data: signBytes})
	if err != nil {
		return nil, errorsmod.Wrap(ErrSignerUnavailable, err.Error())
	}

	signatureData := &signingtypes.SingleSignatureData{
		SignMode:  signingtypes.SignMode_SIGN_MODE_UNSPECIFIED,
		Signature: sig,
	}
	return marshalSingleSignatureData(signatureData)
}

// marshalSingleSignatureData wraps sig in the single-signer
// SignatureDescriptor_Data envelope and protobuf-marshals it. Multisig is
// never produced; the solo machine is single-signer throughout.
func marshalSingleSignatureData(sigData *signingtypes.SingleSignatureData) ([]byte, error) {
	descriptor := &signingtypes.SignatureDescriptor_Data{
		Sum: &signingtypes.SignatureDescriptor_Data_Single_{
			Single: &signingtypes.SignatureDescriptor_Data_Single{
				Mode:      sigData.SignMode,
				Signature: sigData.Signature,
			},
		},
	}
	return proto.Marshal(descriptor)
}
