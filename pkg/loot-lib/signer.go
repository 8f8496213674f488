package lootlib

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
)

// KeyArgs addresses a key held by the signer capability. The triple is opaque
// to this library, it is forwarded verbatim on every signer call.
type KeyArgs struct {
	ProtocolID   string
	KeyID        string
	Counterparty string
}

// Signer is the external signing capability consumed by the unlockers.
// Private key material never enters this library: unlockers hand the signer a
// 32-byte digest and receive a raw DER signature back.
//
// Signer calls are the only suspending operations in the library. They may be
// denied, time out, or fail; callers own the retry policy.
type Signer interface {
	GetPublicKey(ctx context.Context, args KeyArgs) (*btcec.PublicKey, error)
	CreateSignature(ctx context.Context, digest []byte, args KeyArgs) ([]byte, error)
	IsAuthenticated(ctx context.Context) (bool, error)
}

// Unlocker produces the unlocking script for one transaction input. There is
// one implementation per locking script kind.
type Unlocker interface {
	// Sign builds the unlocking script for the given input. On failure no
	// partial script is ever returned.
	Sign(ctx context.Context, tx *wire.MsgTx, inputIndex int) ([]byte, error)
	// EstimateLength returns a stable upper bound on the unlocking script
	// size, used for fee budgeting before the real signature exists.
	EstimateLength() int
}
