package token

import (
	"context"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	lootlib "github.com/lootforge/lootd/pkg/loot-lib"
	"github.com/lootforge/lootd/pkg/loot-lib/sighash"
)

// unlockScriptMaxLen is the stable upper bound for a <sig><pubKey> unlocking
// script: 1+72 for the DER signature with scope byte, 1+33 for the
// compressed public key.
const unlockScriptMaxLen = 107

// Unlock returns the unlocker satisfying the P2PKH challenge of a token
// locking script.
//
// The default signature scope is SINGLE, not ALL: a wallet-level action can
// then still append change outputs after pre-signing without invalidating
// the signature. Request SignAll explicitly when whole-transaction
// commitment is required.
func Unlock(signer lootlib.Signer, opts lootlib.UnlockOptions) lootlib.Unlocker {
	return &unlocker{signer: signer, opts: opts}
}

type unlocker struct {
	signer lootlib.Signer
	opts   lootlib.UnlockOptions
}

func (u *unlocker) Sign(ctx context.Context, tx *wire.MsgTx, inputIndex int) ([]byte, error) {
	outputs := u.opts.SignOutputs
	if outputs == sighash.SignUnspecified {
		outputs = sighash.SignSingle
	}
	scope := sighash.Resolve(outputs, u.opts.AnyoneCanPay)

	sig, pubKey, err := lootlib.SignInput(
		ctx, u.signer, tx, inputIndex, scope, u.opts.SourceFetcher(), u.opts.Key,
	)
	if err != nil {
		return nil, err
	}

	return txscript.NewScriptBuilder().
		AddData(sig).
		AddData(pubKey.SerializeCompressed()).
		Script()
}

func (u *unlocker) EstimateLength() int {
	return unlockScriptMaxLen
}
