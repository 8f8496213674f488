// Package signer provides a local implementation of the signing capability
// consumed by the script unlockers, backed by a single secp256k1 key held in
// memory. It exists for the CLI and tests; production deployments are
// expected to plug in a remote wallet instead.
package signer

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	lootlib "github.com/lootforge/lootd/pkg/loot-lib"
)

type localSigner struct {
	key *btcec.PrivateKey
}

// NewLocalSigner creates a signer from a hex-encoded 32-byte private key.
// The key never leaves this package: callers only ever receive digests
// signed with it.
func NewLocalSigner(privKeyHex string) (lootlib.Signer, error) {
	buf, err := hex.DecodeString(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signer key, must be hex: %s", err)
	}
	if len(buf) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf(
			"invalid signer key length, got %d want %d", len(buf), btcec.PrivKeyBytesLen,
		)
	}
	key, _ := btcec.PrivKeyFromBytes(buf)
	return &localSigner{key: key}, nil
}

func (s *localSigner) GetPublicKey(
	ctx context.Context, args lootlib.KeyArgs,
) (*btcec.PublicKey, error) {
	return s.key.PubKey(), nil
}

func (s *localSigner) CreateSignature(
	ctx context.Context, digest []byte, args lootlib.KeyArgs,
) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("invalid digest length, got %d want 32", len(digest))
	}
	return ecdsa.Sign(s.key, digest).Serialize(), nil
}

func (s *localSigner) IsAuthenticated(ctx context.Context) (bool, error) {
	return true, nil
}
