package market

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	lootlib "github.com/lootforge/lootd/pkg/loot-lib"
	"github.com/lootforge/lootd/pkg/loot-lib/token"
)

// ErrNotListingScript is returned by DecodeListing when the script does not
// carry the listing contract template.
var ErrNotListingScript = errors.New("not a listing script")

// Codec builds and reads marketplace listing scripts.
type Codec struct {
	tokens *token.Codec
}

// NewCodec creates a Codec sharing the token codec's namespace and network
// defaults.
func NewCodec(app string, net *chaincfg.Params) *Codec {
	return &Codec{tokens: token.NewCodec(app, net)}
}

// BuildListing builds the locking script listing a unit token for sale:
//
//	OP_0 OP_IF "ord" OP_1 "application/bsv-20" OP_0 <transfer payload> OP_ENDIF
//	<prefix> <cancelAuthorityHash> <paymentDescriptor> <suffix>
//	OP_RETURN <metadata>
//
// The payment descriptor pins a P2PKH output of exactly priceSatoshis to the
// payment address; a purchase transaction must reproduce it byte for byte at
// output index 1. Only the key hashing to the embedded cancel authority can
// run the cancel branch. Listings apply only to unit-token items, so the
// inscribed transfer amount is fixed at 1.
func (c *Codec) BuildListing(
	cancelAuthority, paymentAddress string, priceSatoshis uint64, assetId string,
	metadata map[string]any,
) ([]byte, error) {
	cancelHash, err := lootlib.ResolveOwnerHash(cancelAuthority, c.tokens.Net())
	if err != nil {
		return nil, err
	}
	paymentHash, err := lootlib.ResolveOwnerHash(paymentAddress, c.tokens.Net())
	if err != nil {
		return nil, err
	}
	paymentScript, err := lootlib.P2PKHScript(paymentHash)
	if err != nil {
		return nil, err
	}
	descriptor, err := OutputDescriptor(&wire.TxOut{
		Value:    int64(priceSatoshis),
		PkScript: paymentScript,
	})
	if err != nil {
		return nil, err
	}

	insc, err := token.NewInscription(token.OpTransfer, 1, assetId)
	if err != nil {
		return nil, err
	}
	envelope, err := token.EnvelopeScript(insc)
	if err != nil {
		return nil, err
	}

	embedded, err := txscript.NewScriptBuilder().
		AddData(cancelHash[:]).
		AddData(descriptor).
		Script()
	if err != nil {
		return nil, err
	}

	tail, err := token.MetadataScript(c.tokens.App(), metadata)
	if err != nil {
		return nil, err
	}

	script := make([]byte, 0,
		len(envelope)+len(lockPrefix)+len(embedded)+len(lockSuffix)+len(tail))
	script = append(script, envelope...)
	script = append(script, lockPrefix...)
	script = append(script, embedded...)
	script = append(script, lockSuffix...)
	script = append(script, tail...)
	return script, nil
}

// Listing is a listing locking script read back into its parts.
type Listing struct {
	Inscription *token.Inscription
	CancelHash  [lootlib.HashSize]byte
	Payment     *wire.TxOut
	Metadata    map[string]any
}

// Price returns the listed price in satoshis.
func (l *Listing) Price() uint64 { return uint64(l.Payment.Value) }

// DecodeListing parses a listing locking script.
func DecodeListing(script []byte) (*Listing, error) {
	templateAt := bytes.Index(script, lockPrefix)
	if templateAt < 0 {
		return nil, fmt.Errorf("%w: missing contract template", ErrNotListingScript)
	}

	headTokenizer := txscript.MakeScriptTokenizer(0, script[:templateAt])
	insc, err := token.ParseEnvelope(&headTokenizer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotListingScript, err)
	}

	listing := &Listing{Inscription: insc}
	embedded := txscript.MakeScriptTokenizer(0, script[templateAt+len(lockPrefix):])
	if !embedded.Next() || len(embedded.Data()) != lootlib.HashSize {
		return nil, fmt.Errorf("%w: invalid cancel authority hash", ErrNotListingScript)
	}
	copy(listing.CancelHash[:], embedded.Data())
	if !embedded.Next() || len(embedded.Data()) <= 0 {
		return nil, fmt.Errorf("%w: missing payment descriptor", ErrNotListingScript)
	}
	payment := &wire.TxOut{}
	if err := wire.ReadTxOut(
		bytes.NewReader(embedded.Data()), 0, 0, payment,
	); err != nil {
		return nil, fmt.Errorf("%w: invalid payment descriptor: %s", ErrNotListingScript, err)
	}
	listing.Payment = payment

	rest := script[templateAt+len(lockPrefix):][embedded.ByteIndex():]
	if !bytes.HasPrefix(rest, lockSuffix) {
		return nil, fmt.Errorf("%w: truncated contract template", ErrNotListingScript)
	}

	tailTokenizer := txscript.MakeScriptTokenizer(0, rest[len(lockSuffix):])
	metadata, err := token.ParseMetadataTail(&tailTokenizer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotListingScript, err)
	}
	listing.Metadata = metadata
	return listing, nil
}

// OutputDescriptor serializes a transaction output to the atomic form the
// listing contract compares against: satoshis(8LE), varint script length,
// script bytes.
func OutputDescriptor(out *wire.TxOut) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteTxOut(&buf, 0, 0, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
