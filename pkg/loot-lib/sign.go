package lootlib

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lootforge/lootd/pkg/loot-lib/sighash"
)

// SignInput runs the common signature flow shared by the signature-based
// unlockers: build the preimage for the input under the given scope, double
// hash it, request a raw DER signature over the digest from the signer, and
// append the scope byte. The compressed public key is returned alongside so
// callers can emit the standard <sig><pubKey> pair.
//
// Signer refusal, signer failure, and an unauthenticated signer all surface
// as ErrSigningDenied.
func SignInput(
	ctx context.Context, signer Signer, tx *wire.MsgTx, inputIndex int,
	scope sighash.Flag, prevOuts txscript.PrevOutputFetcher, key KeyArgs,
) ([]byte, *btcec.PublicKey, error) {
	ok, err := signer.IsAuthenticated(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrSigningDenied, err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: signer is not authenticated", ErrSigningDenied)
	}

	preimage, err := sighash.Preimage(tx, inputIndex, scope, prevOuts)
	if err != nil {
		return nil, nil, err
	}
	digest := chainhash.DoubleHashB(preimage)

	rawSig, err := signer.CreateSignature(ctx, digest, key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrSigningDenied, err)
	}
	pubKey, err := signer.GetPublicKey(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrSigningDenied, err)
	}

	sig := make([]byte, 0, len(rawSig)+1)
	sig = append(sig, rawSig...)
	sig = append(sig, byte(scope&0xff))
	return sig, pubKey, nil
}
