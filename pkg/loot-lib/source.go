package lootlib

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lootforge/lootd/pkg/loot-lib/sighash"
)

// UnlockOptions carries the per-input knobs shared by all unlockers.
//
// SourceSatoshis and LockingScript override the source output fields for the
// input being signed; whatever they leave unset must be resolvable through
// PrevOuts or preimage construction fails with sighash.ErrMissingSourceData.
type UnlockOptions struct {
	// SignOutputs selects which outputs the signature commits to. The zero
	// value means SINGLE: a wallet-level action can then still append change
	// outputs after pre-signing without invalidating the signature. ALL must
	// be requested explicitly when whole-transaction commitment is required.
	SignOutputs sighash.SignOutputs

	// AnyoneCanPay uncommits the other inputs from the signature.
	AnyoneCanPay bool

	// SourceSatoshis overrides the value of the source output.
	SourceSatoshis *int64

	// LockingScript overrides the locking script of the source output, which
	// is the subscript committed to by the preimage.
	LockingScript []byte

	// PrevOuts resolves source outputs not covered by the overrides above,
	// typically backed by the parent transactions of the inputs.
	PrevOuts txscript.PrevOutputFetcher

	// Key addresses the signing key within the signer capability.
	Key KeyArgs
}

type overrideFetcher struct {
	base     txscript.PrevOutputFetcher
	satoshis *int64
	pkScript []byte
}

func (f overrideFetcher) FetchPrevOutput(op wire.OutPoint) *wire.TxOut {
	out := wire.TxOut{}
	found := false
	if f.base != nil {
		if prev := f.base.FetchPrevOutput(op); prev != nil {
			out = *prev
			found = true
		}
	}
	if f.satoshis != nil {
		out.Value = *f.satoshis
	}
	if f.pkScript != nil {
		out.PkScript = f.pkScript
	}
	if !found && (f.satoshis == nil || f.pkScript == nil) {
		return nil
	}
	return &out
}

// SourceFetcher combines explicit source output overrides with a fallback
// fetcher. When both overrides are set the fallback is never consulted.
func (o UnlockOptions) SourceFetcher() txscript.PrevOutputFetcher {
	if o.SourceSatoshis == nil && o.LockingScript == nil {
		return o.PrevOuts
	}
	return overrideFetcher{
		base:     o.PrevOuts,
		satoshis: o.SourceSatoshis,
		pkScript: o.LockingScript,
	}
}
