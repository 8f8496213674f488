package application_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lootforge/lootd/internal/core/application"
	"github.com/lootforge/lootd/internal/core/domain"
	"github.com/lootforge/lootd/internal/core/ports"
	"github.com/lootforge/lootd/internal/infrastructure/db"
	"github.com/lootforge/lootd/pkg/loot-lib/market"
	"github.com/lootforge/lootd/pkg/loot-lib/token"
)

const (
	sellerHash = "89abcdefabbaabbaabbaabbaabbaabbaabbaabba"
	buyerHash  = "1234567890aabbccddee1234567890aabbccddee"
)

func newTestService(t *testing.T) (application.IndexerService, ports.RepoManager) {
	t.Helper()
	repoManager, err := db.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return application.NewIndexerService(repoManager), repoManager
}

func rawTx(t *testing.T, tx *wire.MsgTx) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

func TestIndexMintAndTransfer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	codec := token.NewCodec("dungeon", nil)

	mintScript, err := codec.Lock(sellerHash, "", token.OpMint, 1, map[string]any{
		"name": "iron sword",
	})
	require.NoError(t, err)

	mintTx := wire.NewMsgTx(1)
	mintTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	mintTx.AddTxOut(wire.NewTxOut(1, mintScript))

	report, err := svc.IndexTx(ctx, rawTx(t, mintTx))
	require.NoError(t, err)
	require.Equal(t, 1, report.Tokens)
	require.Zero(t, report.Listings)
	require.Zero(t, report.Spent)

	assetId := token.FormatAssetId(wire.OutPoint{Hash: mintTx.TxHash(), Index: 0})

	minted, err := svc.GetTokensByOwner(ctx, sellerHash)
	require.NoError(t, err)
	require.Len(t, minted, 1)
	require.Equal(t, assetId, minted[0].AssetId)
	require.Equal(t, string(token.OpMint), minted[0].Op)
	require.False(t, minted[0].Spent)
	require.Contains(t, minted[0].Metadata, "iron sword")

	// indexing the same tx again records nothing new
	report, err = svc.IndexTx(ctx, rawTx(t, mintTx))
	require.NoError(t, err)
	require.Zero(t, report.Tokens)

	transferScript, err := codec.Lock(buyerHash, assetId, token.OpTransfer, 1, nil)
	require.NoError(t, err)

	transferTx := wire.NewMsgTx(1)
	transferTx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Hash: mintTx.TxHash(), Index: 0}, nil, nil,
	))
	transferTx.AddTxOut(wire.NewTxOut(1, transferScript))

	report, err = svc.IndexTx(ctx, rawTx(t, transferTx))
	require.NoError(t, err)
	require.Equal(t, 1, report.Tokens)
	require.Equal(t, 1, report.Spent)

	// the seller's view is empty now, the buyer holds the asset
	minted, err = svc.GetTokensByOwner(ctx, sellerHash)
	require.NoError(t, err)
	require.Empty(t, minted)

	held, err := svc.GetTokensByOwner(ctx, buyerHash)
	require.NoError(t, err)
	require.Len(t, held, 1)
	require.Equal(t, assetId, held[0].AssetId)

	history, err := svc.GetTokensByAssetId(ctx, assetId)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, tkn := range history {
		if tkn.Txid == mintTx.TxHash().String() {
			require.True(t, tkn.Spent)
			require.Equal(t, transferTx.TxHash().String(), tkn.SpentBy)
		} else {
			require.False(t, tkn.Spent)
		}
	}
}

func TestIndexListingLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, repoManager := newTestService(t)
	codec := token.NewCodec("dungeon", nil)
	marketCodec := market.NewCodec("dungeon", nil)

	mintScript, err := codec.Lock(sellerHash, "", token.OpMint, 1, nil)
	require.NoError(t, err)
	mintTx := wire.NewMsgTx(1)
	mintTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	mintTx.AddTxOut(wire.NewTxOut(1, mintScript))

	_, err = svc.IndexTx(ctx, rawTx(t, mintTx))
	require.NoError(t, err)
	assetId := token.FormatAssetId(wire.OutPoint{Hash: mintTx.TxHash(), Index: 0})

	listingScript, err := marketCodec.BuildListing(
		sellerHash, sellerHash, 1000, assetId, nil,
	)
	require.NoError(t, err)
	listTx := wire.NewMsgTx(1)
	listTx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Hash: mintTx.TxHash(), Index: 0}, nil, nil,
	))
	listTx.AddTxOut(wire.NewTxOut(1, listingScript))

	report, err := svc.IndexTx(ctx, rawTx(t, listTx))
	require.NoError(t, err)
	require.Equal(t, 1, report.Listings)
	require.Zero(t, report.Tokens)
	require.Equal(t, 1, report.Spent)

	open, err := svc.GetListingsByAssetId(ctx, assetId)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, assetId, open[0].AssetId)
	require.Equal(t, sellerHash, open[0].CancelOwner)
	require.Equal(t, uint64(1000), open[0].Price)
	require.False(t, open[0].Spent)

	// purchase: item goes to the buyer, the listing outpoint is spent
	itemScript, err := codec.Lock(buyerHash, assetId, token.OpTransfer, 1, nil)
	require.NoError(t, err)
	buyTx := wire.NewMsgTx(1)
	buyTx.AddTxIn(wire.NewTxIn(
		&wire.OutPoint{Hash: listTx.TxHash(), Index: 0}, nil, nil,
	))
	buyTx.AddTxOut(wire.NewTxOut(1, itemScript))

	report, err = svc.IndexTx(ctx, rawTx(t, buyTx))
	require.NoError(t, err)
	require.Equal(t, 1, report.Tokens)
	require.Equal(t, 1, report.Spent)

	// the listing no longer shows up as open
	open, err = svc.GetListingsByAssetId(ctx, assetId)
	require.NoError(t, err)
	require.Empty(t, open)

	spentListing, err := repoManager.Listings().GetListingByOutpoint(
		ctx, domain.Outpoint{Txid: listTx.TxHash().String(), Vout: 0},
	)
	require.NoError(t, err)
	require.NotNil(t, spentListing)
	require.True(t, spentListing.Spent)
	require.Equal(t, buyTx.TxHash().String(), spentListing.SpentBy)
}

func TestIndexTxInvalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, invalid := range []string{"", "nothex", "deadbeef"} {
		_, err := svc.IndexTx(ctx, invalid)
		require.Error(t, err, invalid)
	}
}
