package token

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	lootlib "github.com/lootforge/lootd/pkg/loot-lib"
)

// envelopeTag marks the inscription envelope.
const envelopeTag = "ord"

// ErrNotTokenScript is returned by Decode when the script does not carry a
// token inscription envelope.
var ErrNotTokenScript = errors.New("not a token script")

// Codec builds and reads token locking scripts for one application namespace
// and network.
type Codec struct {
	app string
	net *chaincfg.Params
}

// NewCodec creates a Codec. An empty app defaults the metadata namespace to
// DefaultApp; a nil network defaults to mainnet.
func NewCodec(app string, net *chaincfg.Params) *Codec {
	if len(app) <= 0 {
		app = DefaultApp
	}
	if net == nil {
		net = &chaincfg.MainNetParams
	}
	return &Codec{app: app, net: net}
}

// App returns the metadata namespace.
func (c *Codec) App() string { return c.app }

// Net returns the address network.
func (c *Codec) Net() *chaincfg.Params { return c.net }

// Lock builds the token locking script:
//
//	OP_0 OP_IF "ord" OP_1 "application/bsv-20" OP_0 <payload> OP_ENDIF
//	OP_DUP OP_HASH160 <ownerHash> OP_EQUALVERIFY OP_CHECKSIG
//	OP_RETURN <metadata>
//
// The envelope is guarded by OP_0 OP_IF and never reachable at evaluation
// time; the P2PKH challenge is the only spending condition. Owner accepts a
// P2PKH address, a compressed public key hex, or a hash160 hex.
func (c *Codec) Lock(
	owner, assetId string, op Operation, amt uint64, metadata map[string]any,
) ([]byte, error) {
	ownerHash, err := lootlib.ResolveOwnerHash(owner, c.net)
	if err != nil {
		return nil, err
	}
	insc, err := NewInscription(op, amt, assetId)
	if err != nil {
		return nil, err
	}

	envelope, err := EnvelopeScript(insc)
	if err != nil {
		return nil, err
	}
	challenge, err := lootlib.P2PKHScript(ownerHash)
	if err != nil {
		return nil, err
	}
	tail, err := MetadataScript(c.app, metadata)
	if err != nil {
		return nil, err
	}

	script := make([]byte, 0, len(envelope)+len(challenge)+len(tail))
	script = append(script, envelope...)
	script = append(script, challenge...)
	script = append(script, tail...)
	return script, nil
}

// EnvelopeScript builds the inscription envelope chunk for the given payload.
func EnvelopeScript(insc *Inscription) ([]byte, error) {
	payload, err := insc.Serialize()
	if err != nil {
		return nil, err
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddOp(txscript.OP_IF).
		AddData([]byte(envelopeTag)).
		AddOp(txscript.OP_1).
		AddData([]byte(ContentType)).
		AddOp(txscript.OP_0).
		AddData(payload).
		AddOp(txscript.OP_ENDIF).
		Script()
}

// MetadataScript builds the OP_RETURN metadata chunk terminating both token
// and listing scripts.
func MetadataScript(app string, fields map[string]any) ([]byte, error) {
	blob, err := MarshalMetadata(app, fields)
	if err != nil {
		return nil, err
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(blob).
		Script()
}

// Decoded is a token locking script read back into its parts.
type Decoded struct {
	Inscription *Inscription
	OwnerHash   [lootlib.HashSize]byte
	Metadata    map[string]any
}

// Decode parses a token locking script. Scripts without the envelope or the
// P2PKH challenge fail with ErrNotTokenScript, which indexers use to skip
// unrelated outputs.
func Decode(script []byte) (*Decoded, error) {
	tokenizer := txscript.MakeScriptTokenizer(0, script)

	insc, err := ParseEnvelope(&tokenizer)
	if err != nil {
		return nil, err
	}

	decoded := &Decoded{Inscription: insc}
	for _, opcode := range []byte{txscript.OP_DUP, txscript.OP_HASH160} {
		if !tokenizer.Next() || tokenizer.Opcode() != opcode {
			return nil, fmt.Errorf("%w: missing spending condition", ErrNotTokenScript)
		}
	}
	if !tokenizer.Next() || len(tokenizer.Data()) != lootlib.HashSize {
		return nil, fmt.Errorf("%w: invalid owner hash", ErrNotTokenScript)
	}
	copy(decoded.OwnerHash[:], tokenizer.Data())
	for _, opcode := range []byte{txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG} {
		if !tokenizer.Next() || tokenizer.Opcode() != opcode {
			return nil, fmt.Errorf("%w: missing spending condition", ErrNotTokenScript)
		}
	}

	metadata, err := ParseMetadataTail(&tokenizer)
	if err != nil {
		return nil, err
	}
	decoded.Metadata = metadata
	return decoded, nil
}

// ParseEnvelope consumes the inscription envelope from the tokenizer and
// returns its payload. The tokenizer is left positioned right after
// OP_ENDIF.
func ParseEnvelope(tokenizer *txscript.ScriptTokenizer) (*Inscription, error) {
	for _, opcode := range []byte{txscript.OP_0, txscript.OP_IF} {
		if !tokenizer.Next() || tokenizer.Opcode() != opcode {
			return nil, fmt.Errorf("%w: missing envelope guard", ErrNotTokenScript)
		}
	}
	if !tokenizer.Next() || !bytes.Equal(tokenizer.Data(), []byte(envelopeTag)) {
		return nil, fmt.Errorf("%w: missing envelope tag", ErrNotTokenScript)
	}
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_1 {
		return nil, fmt.Errorf("%w: malformed envelope", ErrNotTokenScript)
	}
	if !tokenizer.Next() || string(tokenizer.Data()) != ContentType {
		return nil, fmt.Errorf("%w: unexpected content type", ErrNotTokenScript)
	}
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_0 {
		return nil, fmt.Errorf("%w: malformed envelope", ErrNotTokenScript)
	}
	if !tokenizer.Next() || len(tokenizer.Data()) <= 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrNotTokenScript)
	}
	payload := tokenizer.Data()
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_ENDIF {
		return nil, fmt.Errorf("%w: unterminated envelope", ErrNotTokenScript)
	}

	insc, err := DecodeInscription(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotTokenScript, err)
	}
	return insc, nil
}

// ParseMetadataTail consumes the trailing OP_RETURN metadata chunk.
func ParseMetadataTail(tokenizer *txscript.ScriptTokenizer) (map[string]any, error) {
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_RETURN {
		return nil, fmt.Errorf("%w: missing metadata", ErrNotTokenScript)
	}
	if !tokenizer.Next() || len(tokenizer.Data()) <= 0 {
		return nil, fmt.Errorf("%w: missing metadata", ErrNotTokenScript)
	}
	return UnmarshalMetadata(tokenizer.Data())
}
