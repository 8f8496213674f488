package sighash

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

var (
	testSubscript = bytes.Repeat([]byte{0x51}, 30)
	zero32        = make([]byte, 32)
)

func testTx(numInputs, numOutputs int) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	for i := 0; i < numInputs; i++ {
		hash := chainhash.HashH([]byte{byte(i)})
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&hash, uint32(i)), nil, nil))
	}
	for i := 0; i < numOutputs; i++ {
		tx.AddTxOut(wire.NewTxOut(int64(1000*(i+1)), bytes.Repeat([]byte{0x52}, 25)))
	}
	tx.LockTime = 500000
	return tx
}

func testFetcher() txscript.PrevOutputFetcher {
	return txscript.NewCannedPrevOutputFetcher(testSubscript, 42)
}

func TestPreimageLayout(t *testing.T) {
	tx := testTx(2, 2)
	scope := Resolve(SignAll, false)

	preimage, err := Preimage(tx, 0, scope, testFetcher())
	require.NoError(t, err)
	require.Len(t, preimage, EstimateSize(len(testSubscript)))

	// version
	require.Equal(t, uint32(tx.Version), binary.LittleEndian.Uint32(preimage[:4]))
	// outpoint of the signed input follows the two 32-byte hashes
	outpoint := preimage[68:104]
	require.Equal(t, tx.TxIn[0].PreviousOutPoint.Hash[:], outpoint[:32])
	require.Equal(t,
		tx.TxIn[0].PreviousOutPoint.Index, binary.LittleEndian.Uint32(outpoint[32:]),
	)
	// varint-prefixed subscript
	require.Equal(t, byte(len(testSubscript)), preimage[104])
	require.Equal(t, testSubscript, preimage[105:105+len(testSubscript)])
	// amount and sequence
	amountAt := 105 + len(testSubscript)
	require.Equal(t, uint64(42), binary.LittleEndian.Uint64(preimage[amountAt:amountAt+8]))
	require.Equal(t,
		tx.TxIn[0].Sequence, binary.LittleEndian.Uint32(preimage[amountAt+8:amountAt+12]),
	)
	// locktime and scope trailer
	require.Equal(t,
		tx.LockTime, binary.LittleEndian.Uint32(preimage[len(preimage)-8:len(preimage)-4]),
	)
	require.Equal(t,
		uint32(scope), binary.LittleEndian.Uint32(preimage[len(preimage)-4:]),
	)
}

func TestPreimageDeterministic(t *testing.T) {
	tx := testTx(3, 2)
	for _, outputs := range []SignOutputs{SignAll, SignNone, SignSingle} {
		for _, anyoneCanPay := range []bool{false, true} {
			scope := Resolve(outputs, anyoneCanPay)
			first, err := Preimage(tx, 1, scope, testFetcher())
			require.NoError(t, err)
			second, err := Preimage(tx, 1, scope, testFetcher())
			require.NoError(t, err)
			require.Equal(t, first, second)
		}
	}
}

func TestPreimageAnyoneCanPay(t *testing.T) {
	tx := testTx(2, 2)

	committed, err := Preimage(tx, 0, Resolve(SignAll, false), testFetcher())
	require.NoError(t, err)
	uncommitted, err := Preimage(tx, 0, Resolve(SignAll, true), testFetcher())
	require.NoError(t, err)

	// hashPrevouts and hashSequence are zeroed under ANYONECANPAY.
	require.Equal(t, zero32, uncommitted[4:36])
	require.Equal(t, zero32, uncommitted[36:68])
	require.NotEqual(t, zero32, committed[4:36])
	require.NotEqual(t, zero32, committed[36:68])

	// Changing another input's outpoint invalidates a committed preimage but
	// not an anyone-can-pay one.
	tx.TxIn[1].PreviousOutPoint.Index++
	committedAfter, err := Preimage(tx, 0, Resolve(SignAll, false), testFetcher())
	require.NoError(t, err)
	require.NotEqual(t, committed, committedAfter)

	uncommittedAfter, err := Preimage(tx, 0, Resolve(SignAll, true), testFetcher())
	require.NoError(t, err)
	require.Equal(t, uncommitted, uncommittedAfter)
}

func TestPreimageHashOutputs(t *testing.T) {
	tx := testTx(3, 2)

	hashOutputsOf := func(scope Flag, inputIndex int) []byte {
		preimage, err := Preimage(tx, inputIndex, scope, testFetcher())
		require.NoError(t, err)
		return preimage[len(preimage)-40 : len(preimage)-8]
	}

	// NONE commits to no output.
	require.Equal(t, zero32, hashOutputsOf(Resolve(SignNone, false), 0))
	// SINGLE with no matching output hashes to zero as well.
	require.Equal(t, zero32, hashOutputsOf(Resolve(SignSingle, false), 2))
	// SINGLE commits only to the matching output.
	require.NotEqual(t, zero32, hashOutputsOf(Resolve(SignSingle, false), 0))
	require.NotEqual(t,
		hashOutputsOf(Resolve(SignSingle, false), 0),
		hashOutputsOf(Resolve(SignSingle, false), 1),
	)
	// ALL commits to every output.
	all := hashOutputsOf(Resolve(SignAll, false), 0)
	tx.TxOut[1].Value++
	require.NotEqual(t, all, hashOutputsOf(Resolve(SignAll, false), 0))
}

func TestPreimageMissingSourceData(t *testing.T) {
	tx := testTx(1, 1)

	_, err := Preimage(tx, 0, Resolve(SignAll, false), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingSourceData)

	// A fetcher without the input's outpoint cannot resolve the subscript.
	empty := txscript.NewMultiPrevOutFetcher(nil)
	_, err = Preimage(tx, 0, Resolve(SignAll, false), empty)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingSourceData)

	_, err = Preimage(tx, 3, Resolve(SignAll, false), testFetcher())
	require.Error(t, err)
}
