// Package sighash builds the replay-protected transaction signature preimage
// and resolves signature scope bitmasks.
//
// The preimage byte layout is a wire contract enforced by downstream
// validators: a single misplaced byte produces a signature the network
// rejects, and the bug is invisible until broadcast. It is therefore kept in
// one pure function with table-driven tests instead of being re-derived per
// call site.
package sighash

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ErrMissingSourceData is returned when the source output of the signed input
// cannot be resolved, neither from explicit overrides nor from a prevout
// fetcher.
var ErrMissingSourceData = errors.New("missing source output data")

// baseSize is the size of the preimage without the subscript and its length
// prefix: version(4) + hashPrevouts(32) + hashSequence(32) + outpoint(36) +
// amount(8) + sequence(4) + hashOutputs(32) + locktime(4) + scope(4).
const baseSize = 156

var zeroHash chainhash.Hash

// EstimateSize returns the preimage size for a given subscript length.
func EstimateSize(subscriptLen int) int {
	return baseSize + wire.VarIntSerializeSize(uint64(subscriptLen)) + subscriptLen
}

// Preimage serializes the buffer that gets double-SHA256'd and signed for one
// transaction input under the given scope:
//
//	version(4LE) | hashPrevouts(32) | hashSequence(32) | outpoint(36) |
//	varint(len(subscript)) subscript | amount(8LE) | sequence(4LE) |
//	hashOutputs(32) | locktime(4LE) | scope(4LE)
//
// hashPrevouts and hashSequence cover all inputs and are zeroed when
// ANYONECANPAY is set; hashSequence is also zeroed unless the base scope is
// ALL. hashOutputs covers all outputs for ALL, the matching output for
// SINGLE (zero when no such output exists), and nothing for NONE.
//
// The source output of the signed input (its value and locking script, the
// subscript) is resolved through prevOuts; failure to resolve it is
// ErrMissingSourceData.
//
// The function is pure and deterministic for a fixed transaction snapshot.
// An ALL or NONE scoped preimage is invalidated by any change to another
// input's outpoint, so callers must finalize the input set first.
func Preimage(
	tx *wire.MsgTx, inputIndex int, scope Flag, prevOuts txscript.PrevOutputFetcher,
) ([]byte, error) {
	if inputIndex < 0 || inputIndex >= len(tx.TxIn) {
		return nil, fmt.Errorf(
			"input index out of bounds %d, len(inputs)=%d", inputIndex, len(tx.TxIn),
		)
	}
	txIn := tx.TxIn[inputIndex]

	if prevOuts == nil {
		return nil, fmt.Errorf(
			"%w: no prevout fetcher for input %d", ErrMissingSourceData, inputIndex,
		)
	}
	source := prevOuts.FetchPrevOutput(txIn.PreviousOutPoint)
	if source == nil || source.PkScript == nil {
		return nil, fmt.Errorf(
			"%w: unresolved source output %s", ErrMissingSourceData, txIn.PreviousOutPoint,
		)
	}

	hashPrevouts := zeroHash
	hashSequence := zeroHash
	if !scope.HasAnyoneCanPay() {
		hashPrevouts = calcHashPrevouts(tx)
		if scope.Base() == All {
			hashSequence = calcHashSequence(tx)
		}
	}

	hashOutputs := zeroHash
	switch scope.Base() {
	case All:
		hashOutputs = calcHashOutputs(tx.TxOut)
	case Single:
		if inputIndex < len(tx.TxOut) {
			hashOutputs = calcHashOutputs(tx.TxOut[inputIndex : inputIndex+1])
		}
	}

	buf := bytes.NewBuffer(make([]byte, 0, EstimateSize(len(source.PkScript))))
	writeUint32(buf, uint32(tx.Version))
	buf.Write(hashPrevouts[:])
	buf.Write(hashSequence[:])
	writeOutPoint(buf, txIn.PreviousOutPoint)
	if err := wire.WriteVarBytes(buf, 0, source.PkScript); err != nil {
		return nil, err
	}
	writeUint64(buf, uint64(source.Value))
	writeUint32(buf, txIn.Sequence)
	buf.Write(hashOutputs[:])
	writeUint32(buf, tx.LockTime)
	writeUint32(buf, uint32(scope))

	return buf.Bytes(), nil
}

func calcHashPrevouts(tx *wire.MsgTx) chainhash.Hash {
	var buf bytes.Buffer
	for _, txIn := range tx.TxIn {
		writeOutPoint(&buf, txIn.PreviousOutPoint)
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

func calcHashSequence(tx *wire.MsgTx) chainhash.Hash {
	var buf bytes.Buffer
	for _, txIn := range tx.TxIn {
		writeUint32(&buf, txIn.Sequence)
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

func calcHashOutputs(outs []*wire.TxOut) chainhash.Hash {
	var buf bytes.Buffer
	for _, txOut := range outs {
		// wire.WriteTxOut cannot fail on a bytes.Buffer.
		// nolint:errcheck
		wire.WriteTxOut(&buf, 0, 0, txOut)
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

func writeOutPoint(buf *bytes.Buffer, op wire.OutPoint) {
	buf.Write(op.Hash[:])
	writeUint32(buf, op.Index)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
