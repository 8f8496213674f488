package lootlib

import (
	"errors"

	"github.com/lootforge/lootd/pkg/loot-lib/sighash"
)

// ErrMissingSourceData mirrors the sighash package sentinel so callers can
// match it without importing sighash.
var ErrMissingSourceData = sighash.ErrMissingSourceData

var (
	// ErrAddressDecode is returned when an owner argument is neither a valid
	// P2PKH address, a compressed public key, nor a 20-byte hash160.
	ErrAddressDecode = errors.New("invalid address or public key hash")

	// ErrSigningDenied is returned when the signer capability refuses to sign
	// or reports itself unauthenticated. No script bytes are emitted in that
	// case.
	ErrSigningDenied = errors.New("signing denied")

	// ErrMalformedTransaction is returned when a transaction does not satisfy
	// the structural preconditions of the requested unlock.
	ErrMalformedTransaction = errors.New("malformed transaction")
)
