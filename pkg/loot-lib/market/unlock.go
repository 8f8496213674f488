package market

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	lootlib "github.com/lootforge/lootd/pkg/loot-lib"
	"github.com/lootforge/lootd/pkg/loot-lib/sighash"
)

const (
	// cancelScriptMaxLen is the token unlock bound plus the trailing branch
	// flag.
	cancelScriptMaxLen = 108

	// assumedListingScriptLen sizes the purchase estimate when the listing
	// script is not supplied up front. Listings carry the contract template
	// plus inscription and metadata, which lands well under this.
	assumedListingScriptLen = 1500

	// itemDescriptorLen is the descriptor of the 1-satoshi item-to-buyer
	// P2PKH output: value(8) + varint(1) + script(25).
	itemDescriptorLen = 34
)

// CancelUnlock returns the unlocker for the cancel branch of a listing. The
// signature flow is identical to a token unlock; the emitted script is
// <sig><pubKey> followed by the OP_1 branch flag. Only the key whose hash was
// embedded at listing time produces a signature the network accepts; this
// library cannot verify acceptance locally.
func CancelUnlock(signer lootlib.Signer, opts lootlib.UnlockOptions) lootlib.Unlocker {
	return &cancelUnlocker{signer: signer, opts: opts}
}

type cancelUnlocker struct {
	signer lootlib.Signer
	opts   lootlib.UnlockOptions
}

func (u *cancelUnlocker) Sign(
	ctx context.Context, tx *wire.MsgTx, inputIndex int,
) ([]byte, error) {
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
		AddOp(txscript.OP_1).
		Script()
}

func (u *cancelUnlocker) EstimateLength() int {
	return cancelScriptMaxLen
}

// PurchaseUnlock returns the unlocker for the purchase branch of a listing.
// No signing key is involved: the contract re-derives the transaction
// outputs from the supplied preimage and compares them against the price and
// destination fixed at listing time.
//
// The purchase transaction must place the item-to-buyer output at index 0
// and the payment-to-seller output at index 1 at exactly the listed price.
// That ordering is a convention enforced on-chain, not locally: a wrong
// arrangement fails at broadcast, not here.
func PurchaseUnlock(opts lootlib.UnlockOptions) lootlib.Unlocker {
	return &purchaseUnlocker{opts: opts}
}

type purchaseUnlocker struct {
	opts lootlib.UnlockOptions
}

// Sign builds the purchase unlocking script:
//
//	<descriptor(output 0)> <descriptors(outputs 2..) | OP_0>
//	<preimage(ANYONECANPAY|ALL|FORKID)> OP_0
//
// ANYONECANPAY leaves the other inputs' outpoints uncommitted so the buyer
// can fund the purchase freely, while the ALL-equivalent output commitment
// pins every output exactly.
func (u *purchaseUnlocker) Sign(
	ctx context.Context, tx *wire.MsgTx, inputIndex int,
) ([]byte, error) {
	if len(tx.TxOut) < 2 {
		return nil, fmt.Errorf(
			"%w: purchase requires item and payment outputs, got %d",
			lootlib.ErrMalformedTransaction, len(tx.TxOut),
		)
	}

	scope := sighash.All | sighash.ForkID | sighash.AnyoneCanPay
	preimage, err := sighash.Preimage(tx, inputIndex, scope, u.opts.SourceFetcher())
	if err != nil {
		return nil, err
	}

	itemDescriptor, err := OutputDescriptor(tx.TxOut[0])
	if err != nil {
		return nil, err
	}
	trailing := make([]byte, 0)
	for _, txOut := range tx.TxOut[2:] {
		descriptor, err := OutputDescriptor(txOut)
		if err != nil {
			return nil, err
		}
		trailing = append(trailing, descriptor...)
	}

	// The preimage embeds the whole listing script and routinely exceeds the
	// canonical 520-byte push bound, hence AddFullData.
	builder := txscript.NewScriptBuilder().AddFullData(itemDescriptor)
	if len(trailing) > 0 {
		builder.AddFullData(trailing)
	} else {
		builder.AddOp(txscript.OP_0)
	}
	return builder.
		AddFullData(preimage).
		AddOp(txscript.OP_0).
		Script()
}

func (u *purchaseUnlocker) EstimateLength() int {
	subscriptLen := len(u.opts.LockingScript)
	if subscriptLen <= 0 {
		subscriptLen = assumedListingScriptLen
	}
	preimageLen := sighash.EstimateSize(subscriptLen)
	return pushLen(itemDescriptorLen) + 1 + pushLen(preimageLen) + 1
}

// pushLen returns the serialized size of a data push of n bytes.
func pushLen(n int) int {
	switch {
	case n <= 75:
		return n + 1
	case n <= 0xff:
		return n + 2
	case n <= 0xffff:
		return n + 3
	default:
		return n + 5
	}
}
