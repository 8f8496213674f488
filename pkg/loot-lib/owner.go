package lootlib

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// HashSize is the size of a hash160 public key commitment.
const HashSize = 20

// ResolveOwnerHash turns an owner argument into the 20-byte hash160 a locking
// script commits to. It accepts, in order of precedence:
//   - a base58check P2PKH address for the given network
//   - a hex-encoded 33-byte compressed public key
//   - a hex-encoded 20-byte hash160
//
// A nil network defaults to mainnet.
func ResolveOwnerHash(owner string, net *chaincfg.Params) ([HashSize]byte, error) {
	var pkh [HashSize]byte
	if len(owner) <= 0 {
		return pkh, fmt.Errorf("%w: missing owner", ErrAddressDecode)
	}
	if net == nil {
		net = &chaincfg.MainNetParams
	}

	if addr, err := btcutil.DecodeAddress(owner, net); err == nil {
		p2pkh, ok := addr.(*btcutil.AddressPubKeyHash)
		if !ok {
			return pkh, fmt.Errorf("%w: unsupported address type %T", ErrAddressDecode, addr)
		}
		copy(pkh[:], p2pkh.Hash160()[:])
		return pkh, nil
	}

	buf, err := hex.DecodeString(owner)
	if err != nil {
		return pkh, fmt.Errorf("%w: %s", ErrAddressDecode, err)
	}
	switch len(buf) {
	case HashSize:
		copy(pkh[:], buf)
		return pkh, nil
	case btcec.PubKeyBytesLenCompressed:
		pubKey, err := btcec.ParsePubKey(buf)
		if err != nil {
			return pkh, fmt.Errorf("%w: %s", ErrAddressDecode, err)
		}
		copy(pkh[:], btcutil.Hash160(pubKey.SerializeCompressed()))
		return pkh, nil
	default:
		return pkh, fmt.Errorf(
			"%w: invalid length, got %d want %d or %d",
			ErrAddressDecode, len(buf), HashSize, btcec.PubKeyBytesLenCompressed,
		)
	}
}

// P2PKHScript builds the standard pay-to-pubkey-hash challenge for the given
// hash160.
func P2PKHScript(pkh [HashSize]byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pkh[:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}
