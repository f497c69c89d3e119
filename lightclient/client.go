// Package lightclient implements the solo-machine's independent Tendermint
// light client: it tracks the counterparty chain's validator set and
// latest trusted header via bisection, using the real CometBFT verification
// core for the cryptographic step and a hand-rolled bisection scheduler for
// orchestration.
package lightclient

import (
	"context"
	"errors"
	"time"

	errorsmod "cosmossdk.io/errors"
	cmtmath "github.com/cometbft/cometbft/libs/math"
	"github.com/cometbft/cometbft/light"
	"github.com/cometbft/cometbft/types"

	"github.com/strangelove-ventures/solo-machine/rpcclient"
)

// Options configures one Client instance, mirroring the trust parameters in
// store.ChainConfig (duplicated here rather than importing store, since the
// light client has no need of the rest of ChainConfig/ChainState).
type Options struct {
	TrustingPeriod time.Duration
	MaxClockDrift  time.Duration
	TrustLevel     cmtmath.Fraction
	TrustedHeight  int64
	TrustedHash    []byte
}

// Client owns one light-block store and verifies against a single remote
// chain; it is not safe to share across concurrent operations.
type Client struct {
	rpc     rpcclient.Client
	store   *Store
	opts    Options
	chainID string
}

// New seeds a Client from the light block at opts.TrustedHeight, validating
// its hash against opts.TrustedHash and marking it Trusted.
func New(ctx context.Context, rpc rpcclient.Client, chainID string, opts Options) (*Client, error) {
	store := NewStore()
	c := &Client{rpc: rpc, store: store, opts: opts, chainID: chainID}

	height := opts.TrustedHeight
	lb, err := rpc.LightBlock(ctx, &height)
	if err != nil {
		return nil, errorsmod.Wrap(ErrVerificationFailed, err.Error())
	}

	if !hashEqual(lb.SignedHeader.Hash(), opts.TrustedHash) {
		return nil, errorsmod.Wrapf(ErrTrustedHashMismatch, "seed block hash %X != configured %X", lb.SignedHeader.Hash(), opts.TrustedHash)
	}
	if err := validateSeed(lb, opts, time.Now()); err != nil {
		return nil, err
	}

	if err := store.Set(lb, StatusTrusted); err != nil {
		return nil, errorsmod.Wrap(ErrVerificationFailed, err.Error())
	}
	return c, nil
}

func hashEqual(a []byte, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validateSeed checks the seed block lies within the trusting period, its
// timestamp is not in the future beyond max clock drift, and its
// ValidatorsHash/NextValidatorsHash are self-consistent with the fetched
// validator set.
func validateSeed(lb *types.LightBlock, opts Options, now time.Time) error {
	if now.Sub(lb.SignedHeader.Time) > opts.TrustingPeriod {
		return errorsmod.Wrapf(ErrTrustedStateExpired, "seed block time %s outside trusting period %s", lb.SignedHeader.Time, opts.TrustingPeriod)
	}
	if lb.SignedHeader.Time.After(now.Add(opts.MaxClockDrift)) {
		return errorsmod.Wrapf(ErrVerificationFailed, "seed block time %s exceeds max clock drift", lb.SignedHeader.Time)
	}
	if !hashEqual(lb.SignedHeader.ValidatorsHash, lb.ValidatorSet.Hash()) {
		return errorsmod.Wrap(ErrVerificationFailed, "seed block validators hash mismatch")
	}
	// The seed is taken on trust without a verified predecessor, so its next
	// validator set must match its own validator set.
	if !hashEqual(lb.SignedHeader.ValidatorsHash, lb.SignedHeader.NextValidatorsHash) {
		return errorsmod.Wrap(ErrVerificationFailed, "seed block next validators hash mismatch")
	}
	return nil
}

// VerifyToHighest advances the client's trusted state to the remote chain's
// current tip and returns the resulting tip LightBlock. Heights above the
// trusted block are reached by forward bisection, heights below it by a
// sequential backward walk.
func (c *Client) VerifyToHighest(ctx context.Context) (*types.LightBlock, error) {
	target, err := c.rpc.LightBlock(ctx, nil)
	if err != nil {
		return nil, errorsmod.Wrap(ErrVerificationFailed, err.Error())
	}

	if existing, status, err := c.store.Get(target.Height); err == nil && (status == StatusTrusted || status == StatusVerified) {
		return existing, nil
	}

	trustedBlock, _, ok := c.store.HighestTrustedOrVerified()
	if !ok {
		return nil, errorsmod.Wrap(ErrVerificationFailed, "no trusted or verified light block to bisect from")
	}

	if target.Height >= trustedBlock.Height {
		return c.forwardBisect(ctx, trustedBlock, target)
	}
	return c.backwardWalk(ctx, trustedBlock, target)
}

// forwardBisect repeatedly verifies candidate heights between trusted and
// target, bisecting to the midpoint whenever the validator-set change is
// too large to trust in one hop.
func (c *Client) forwardBisect(ctx context.Context, trusted, target *types.LightBlock) (*types.LightBlock, error) {
	low := trusted.Height
	current := target

	for {
		now := time.Now()
		if now.Sub(trusted.SignedHeader.Time) > c.opts.TrustingPeriod {
			return nil, errorsmod.Wrap(ErrTrustedStateExpired, "trusted block expired mid-bisection")
		}

		err := light.Verify(
			trusted.SignedHeader, trusted.ValidatorSet,
			current.SignedHeader, current.ValidatorSet,
			c.opts.TrustingPeriod, now, c.opts.MaxClockDrift, c.opts.TrustLevel,
		)
		if err == nil {
			if setErr := c.store.Set(current, StatusVerified); setErr != nil {
				return nil, errorsmod.Wrap(ErrVerificationFailed, setErr.Error())
			}
			if current.Height == target.Height {
				if setErr := c.store.Set(current, StatusTrusted); setErr != nil {
					return nil, errorsmod.Wrap(ErrVerificationFailed, setErr.Error())
				}
				return current, nil
			}
			trusted = current
			low = current.Height
			current = target
			continue
		}

		var notEnoughTrust light.ErrNewValSetCantBeTrusted
		if !errors.As(err, &notEnoughTrust) {
			_ = c.store.Set(current, StatusFailed)
			return nil, errorsmod.Wrap(ErrVerificationFailed, err.Error())
		}

		mid := low + (current.Height-low)/2
		if mid <= low {
			_ = c.store.Set(current, StatusFailed)
			return nil, errorsmod.Wrap(ErrVerificationFailed, "bisection could not make progress")
		}
		midBlock, fetchErr := c.rpc.LightBlock(ctx, &mid)
		if fetchErr != nil {
			return nil, errorsmod.Wrap(ErrVerificationFailed, fetchErr.Error())
		}
		_ = c.store.Set(midBlock, StatusUnverified)
		current = midBlock
	}
}

// backwardWalk verifies a target height strictly below the highest trusted
// block by linking adjacent headers down from trusted.Height-1; a broken
// link is fatal.
func (c *Client) backwardWalk(ctx context.Context, trusted, target *types.LightBlock) (*types.LightBlock, error) {
	latest := trusted
	for h := trusted.Height - 1; h >= target.Height; h-- {
		height := h
		current, err := c.rpc.LightBlock(ctx, &height)
		if err != nil {
			return nil, errorsmod.Wrap(ErrVerificationFailed, err.Error())
		}
		if !hashEqual(current.SignedHeader.Hash(), latest.SignedHeader.LastBlockID.Hash) {
			_ = c.store.Set(current, StatusFailed)
			return nil, errorsmod.Wrapf(ErrVerificationFailed, "backward link broken at height %d", h)
		}
		status := StatusVerified
		if h == target.Height {
			status = StatusTrusted
		}
		if err := c.store.Set(current, status); err != nil {
			return nil, errorsmod.Wrap(ErrVerificationFailed, err.Error())
		}
		latest = current
	}
	return latest, nil
}
