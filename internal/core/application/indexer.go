package application

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/lootforge/lootd/internal/core/domain"
	"github.com/lootforge/lootd/internal/core/ports"
	"github.com/lootforge/lootd/pkg/loot-lib/market"
	"github.com/lootforge/lootd/pkg/loot-lib/token"
)

// IndexerService reconstructs token ownership and open listings by scanning
// raw transactions for the known script shapes. It is the off-chain consumer
// side of the protocol: the scripts themselves are the only source of truth,
// and no amount conservation is checked across merges, subtracts or burns.
type IndexerService interface {
	IndexTx(ctx context.Context, rawTx string) (*IndexReport, error)
	GetTokensByOwner(ctx context.Context, owner string) ([]domain.Token, error)
	GetTokensByAssetId(ctx context.Context, assetId string) ([]domain.Token, error)
	GetListingsByAssetId(ctx context.Context, assetId string) ([]domain.Listing, error)
}

// IndexReport summarizes what one transaction scan recorded.
type IndexReport struct {
	Txid     string
	Tokens   int
	Listings int
	Spent    int
}

type indexerService struct {
	repoManager ports.RepoManager
}

func NewIndexerService(repoManager ports.RepoManager) IndexerService {
	return &indexerService{repoManager: repoManager}
}

func (s *indexerService) IndexTx(ctx context.Context, rawTx string) (*IndexReport, error) {
	buf, err := hex.DecodeString(rawTx)
	if err != nil {
		return nil, fmt.Errorf("invalid raw tx, must be hex: %s", err)
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("invalid raw tx: %s", err)
	}

	txid := tx.TxHash().String()
	report := &IndexReport{Txid: txid}

	spent, err := s.markSpentInputs(ctx, tx, txid)
	if err != nil {
		return nil, err
	}
	report.Spent = spent

	tokens := make([]domain.Token, 0, len(tx.TxOut))
	listings := make([]domain.Listing, 0)
	for vout, txOut := range tx.TxOut {
		outpoint := wire.OutPoint{Hash: tx.TxHash(), Index: uint32(vout)}

		if listing, err := market.DecodeListing(txOut.PkScript); err == nil {
			listings = append(listings, newListingRecord(listing, txid, uint32(vout)))
			continue
		}

		decoded, err := token.Decode(txOut.PkScript)
		if err != nil {
			continue
		}
		tokens = append(tokens, newTokenRecord(decoded, outpoint))
	}

	if len(tokens) > 0 {
		count, err := s.repoManager.Tokens().AddTokens(ctx, tokens)
		if err != nil {
			return nil, err
		}
		report.Tokens = count
	}
	if len(listings) > 0 {
		count, err := s.repoManager.Listings().AddListings(ctx, listings)
		if err != nil {
			return nil, err
		}
		report.Listings = count
	}

	log.WithFields(log.Fields{
		"txid":     txid,
		"tokens":   report.Tokens,
		"listings": report.Listings,
		"spent":    report.Spent,
	}).Debug("indexed transaction")
	return report, nil
}

func (s *indexerService) GetTokensByOwner(
	ctx context.Context, owner string,
) ([]domain.Token, error) {
	return s.repoManager.Tokens().GetTokensByOwner(ctx, owner)
}

func (s *indexerService) GetTokensByAssetId(
	ctx context.Context, assetId string,
) ([]domain.Token, error) {
	return s.repoManager.Tokens().GetTokensByAssetId(ctx, assetId)
}

func (s *indexerService) GetListingsByAssetId(
	ctx context.Context, assetId string,
) ([]domain.Listing, error) {
	return s.repoManager.Listings().GetListingsByAssetId(ctx, assetId)
}

func (s *indexerService) markSpentInputs(
	ctx context.Context, tx *wire.MsgTx, txid string,
) (int, error) {
	count := 0
	for _, txIn := range tx.TxIn {
		outpoint := domain.Outpoint{
			Txid: txIn.PreviousOutPoint.Hash.String(),
			Vout: txIn.PreviousOutPoint.Index,
		}
		if prev, _ := s.repoManager.Tokens().GetTokenByOutpoint(ctx, outpoint); prev != nil {
			if err := s.repoManager.Tokens().MarkTokenSpent(ctx, outpoint, txid); err != nil {
				return count, err
			}
			count++
		}
		if prev, _ := s.repoManager.Listings().GetListingByOutpoint(ctx, outpoint); prev != nil {
			if err := s.repoManager.Listings().MarkListingSpent(ctx, outpoint, txid); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func newTokenRecord(decoded *token.Decoded, outpoint wire.OutPoint) domain.Token {
	assetId := decoded.Inscription.Id
	if decoded.Inscription.Op == token.OpMint {
		// A mint's asset id is the outpoint of the output that created it.
		assetId = token.FormatAssetId(outpoint)
	}
	return domain.Token{
		Id:       uuid.NewString(),
		AssetId:  assetId,
		Txid:     outpoint.Hash.String(),
		Vout:     outpoint.Index,
		Owner:    hex.EncodeToString(decoded.OwnerHash[:]),
		Amt:      decoded.Inscription.Amt,
		Op:       string(decoded.Inscription.Op),
		Metadata: marshalMetadata(decoded.Metadata),
	}
}

func newListingRecord(listing *market.Listing, txid string, vout uint32) domain.Listing {
	return domain.Listing{
		Id:            uuid.NewString(),
		AssetId:       listing.Inscription.Id,
		Txid:          txid,
		Vout:          vout,
		CancelOwner:   hex.EncodeToString(listing.CancelHash[:]),
		Price:         listing.Price(),
		PaymentScript: hex.EncodeToString(listing.Payment.PkScript),
		Metadata:      marshalMetadata(listing.Metadata),
	}
}

func marshalMetadata(md map[string]any) string {
	if len(md) <= 0 {
		return ""
	}
	buf, err := json.Marshal(md)
	if err != nil {
		return ""
	}
	return string(buf)
}
