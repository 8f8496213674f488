package market

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	lootlib "github.com/lootforge/lootd/pkg/loot-lib"
	"github.com/lootforge/lootd/pkg/loot-lib/sighash"
)

type stubSigner struct {
	key *btcec.PrivateKey
}

func newStubSigner(t *testing.T, seed byte) *stubSigner {
	t.Helper()
	buf := make([]byte, 32)
	buf[31] = seed
	key, _ := btcec.PrivKeyFromBytes(buf)
	return &stubSigner{key: key}
}

func (s *stubSigner) GetPublicKey(
	ctx context.Context, args lootlib.KeyArgs,
) (*btcec.PublicKey, error) {
	return s.key.PubKey(), nil
}

func (s *stubSigner) CreateSignature(
	ctx context.Context, digest []byte, args lootlib.KeyArgs,
) ([]byte, error) {
	return ecdsa.Sign(s.key, digest).Serialize(), nil
}

func (s *stubSigner) IsAuthenticated(ctx context.Context) (bool, error) {
	return true, nil
}

type scriptToken struct {
	opcode byte
	data   []byte
}

func tokenize(t *testing.T, script []byte) []scriptToken {
	t.Helper()
	tokens := make([]scriptToken, 0, 4)
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		tokens = append(tokens, scriptToken{tokenizer.Opcode(), tokenizer.Data()})
	}
	require.NoError(t, tokenizer.Err())
	return tokens
}

func testListingScript(t *testing.T) []byte {
	t.Helper()
	script, err := NewCodec("dungeon", nil).
		BuildListing(testSellerHash, testSellerHash, 1000, testAssetId, nil)
	require.NoError(t, err)
	return script
}

// testPurchaseTx spends a listing with the item-to-buyer output at index 0
// and the payment-to-seller output at index 1.
func testPurchaseTx(t *testing.T, listingScript []byte) (*wire.MsgTx, lootlib.UnlockOptions) {
	t.Helper()
	listing, err := DecodeListing(listingScript)
	require.NoError(t, err)

	buyerPKH, err := lootlib.ResolveOwnerHash(testBuyerHash, nil)
	require.NoError(t, err)
	itemScript, err := lootlib.P2PKHScript(buyerPKH)
	require.NoError(t, err)

	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(1, itemScript))
	tx.AddTxOut(listing.Payment)

	satoshis := int64(1)
	return tx, lootlib.UnlockOptions{
		SourceSatoshis: &satoshis,
		LockingScript:  listingScript,
	}
}

func TestCancelUnlockSign(t *testing.T) {
	listingScript := testListingScript(t)

	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	sellerPKH, err := lootlib.ResolveOwnerHash(testSellerHash, nil)
	require.NoError(t, err)
	refund, err := lootlib.P2PKHScript(sellerPKH)
	require.NoError(t, err)
	tx.AddTxOut(wire.NewTxOut(1, refund))

	satoshis := int64(1)
	opts := lootlib.UnlockOptions{
		SourceSatoshis: &satoshis,
		LockingScript:  listingScript,
	}
	signer := newStubSigner(t, 1)

	script, err := CancelUnlock(signer, opts).Sign(context.Background(), tx, 0)
	require.NoError(t, err)

	tokens := tokenize(t, script)
	require.Len(t, tokens, 3)
	require.Equal(t, byte(txscript.OP_1), tokens[2].opcode)

	sig, pubKey := tokens[0].data, tokens[1].data
	require.Equal(t, byte(0x43), sig[len(sig)-1])
	require.Equal(t, signer.key.PubKey().SerializeCompressed(), pubKey)

	parsed, err := ecdsa.ParseDERSignature(sig[:len(sig)-1])
	require.NoError(t, err)
	preimage, err := sighash.Preimage(
		tx, 0, sighash.Resolve(sighash.SignSingle, false), opts.SourceFetcher(),
	)
	require.NoError(t, err)
	require.True(t, parsed.Verify(chainhash.DoubleHashB(preimage), signer.key.PubKey()))

	require.LessOrEqual(t, len(script), CancelUnlock(signer, opts).EstimateLength())

	// a different key yields a different cancel script
	other, err := CancelUnlock(newStubSigner(t, 2), opts).Sign(context.Background(), tx, 0)
	require.NoError(t, err)
	require.NotEqual(t, script, other)
}

func TestPurchaseUnlockSign(t *testing.T) {
	listingScript := testListingScript(t)
	tx, opts := testPurchaseTx(t, listingScript)

	script, err := PurchaseUnlock(opts).Sign(context.Background(), tx, 0)
	require.NoError(t, err)

	tokens := tokenize(t, script)
	require.Len(t, tokens, 4)

	itemDescriptor, err := OutputDescriptor(tx.TxOut[0])
	require.NoError(t, err)
	require.Equal(t, itemDescriptor, tokens[0].data)

	// no outputs beyond item and payment, so the trailing slot is OP_0
	require.Equal(t, byte(txscript.OP_0), tokens[1].opcode)

	preimage := tokens[2].data
	scope := sighash.All | sighash.ForkID | sighash.AnyoneCanPay
	want, err := sighash.Preimage(tx, 0, scope, opts.SourceFetcher())
	require.NoError(t, err)
	require.Equal(t, want, preimage)

	require.Equal(t, byte(txscript.OP_0), tokens[3].opcode)

	require.LessOrEqual(t, len(script), PurchaseUnlock(opts).EstimateLength())
}

func TestPurchaseUnlockTrailingOutputs(t *testing.T) {
	listingScript := testListingScript(t)
	tx, opts := testPurchaseTx(t, listingScript)

	buyerPKH, err := lootlib.ResolveOwnerHash(testBuyerHash, nil)
	require.NoError(t, err)
	change, err := lootlib.P2PKHScript(buyerPKH)
	require.NoError(t, err)
	tx.AddTxOut(wire.NewTxOut(5000, change))

	script, err := PurchaseUnlock(opts).Sign(context.Background(), tx, 0)
	require.NoError(t, err)

	tokens := tokenize(t, script)
	require.Len(t, tokens, 4)

	changeDescriptor, err := OutputDescriptor(tx.TxOut[2])
	require.NoError(t, err)
	require.Equal(t, changeDescriptor, tokens[1].data)
}

func TestPurchaseUnlockCommitsToPayment(t *testing.T) {
	listingScript := testListingScript(t)

	tx, opts := testPurchaseTx(t, listingScript)
	honest, err := PurchaseUnlock(opts).Sign(context.Background(), tx, 0)
	require.NoError(t, err)

	// underpaying changes the committed outputs and therefore the preimage
	tx, opts = testPurchaseTx(t, listingScript)
	tx.TxOut[1].Value--
	underpaid, err := PurchaseUnlock(opts).Sign(context.Background(), tx, 0)
	require.NoError(t, err)
	require.NotEqual(t, honest, underpaid)
}

func TestPurchaseUnlockMalformedTx(t *testing.T) {
	listingScript := testListingScript(t)
	tx, opts := testPurchaseTx(t, listingScript)
	tx.TxOut = tx.TxOut[:1]

	script, err := PurchaseUnlock(opts).Sign(context.Background(), tx, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, lootlib.ErrMalformedTransaction)
	require.Nil(t, script)
}

func TestPurchaseUnlockMissingSourceData(t *testing.T) {
	tx, _ := testPurchaseTx(t, testListingScript(t))

	_, err := PurchaseUnlock(lootlib.UnlockOptions{}).Sign(context.Background(), tx, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, sighash.ErrMissingSourceData)
}
