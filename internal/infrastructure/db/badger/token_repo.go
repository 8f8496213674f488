package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/lootforge/lootd/internal/core/domain"
)

const tokenStoreDir = "tokens"

type tokenRepository struct {
	store *badgerhold.Store
}

func NewTokenRepository(baseDir string, logger badger.Logger) (domain.TokenRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, tokenStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %s", err)
	}

	return &tokenRepository{store}, nil
}

func (r *tokenRepository) AddTokens(
	ctx context.Context, tokens []domain.Token,
) (int, error) {
	count := 0
	for _, tkn := range tokens {
		if err := r.insert(outpointKey(tkn.Txid, tkn.Vout), &tkn); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (r *tokenRepository) GetTokenByOutpoint(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.Token, error) {
	var tkn domain.Token
	err := r.store.Get(outpointKey(outpoint.Txid, outpoint.Vout), &tkn)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &tkn, nil
}

func (r *tokenRepository) GetTokensByOwner(
	ctx context.Context, owner string,
) ([]domain.Token, error) {
	var tokens []domain.Token
	query := badgerhold.Where("Owner").Eq(owner).And("Spent").Eq(false)
	if err := r.store.Find(&tokens, query); err != nil {
		return nil, fmt.Errorf("failed to list tokens by owner: %w", err)
	}
	return tokens, nil
}

func (r *tokenRepository) GetTokensByAssetId(
	ctx context.Context, assetId string,
) ([]domain.Token, error) {
	var tokens []domain.Token
	query := badgerhold.Where("AssetId").Eq(assetId)
	if err := r.store.Find(&tokens, query); err != nil {
		return nil, fmt.Errorf("failed to list tokens by asset id: %w", err)
	}
	return tokens, nil
}

func (r *tokenRepository) MarkTokenSpent(
	ctx context.Context, outpoint domain.Outpoint, spentBy string,
) error {
	key := outpointKey(outpoint.Txid, outpoint.Vout)
	var tkn domain.Token
	if err := r.store.Get(key, &tkn); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("token %s not found", key)
		}
		return err
	}
	tkn.Spent = true
	tkn.SpentBy = spentBy
	return r.update(key, &tkn)
}

func (r *tokenRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *tokenRepository) insert(key string, tkn *domain.Token) error {
	err := r.store.Insert(key, tkn)
	if errors.Is(err, badger.ErrConflict) {
		attempts := 1
		for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
			time.Sleep(100 * time.Millisecond)
			err = r.store.Insert(key, tkn)
			attempts++
		}
	}
	return err
}

func (r *tokenRepository) update(key string, tkn *domain.Token) error {
	err := r.store.Update(key, tkn)
	if errors.Is(err, badger.ErrConflict) {
		attempts := 1
		for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
			time.Sleep(100 * time.Millisecond)
			err = r.store.Update(key, tkn)
			attempts++
		}
	}
	return err
}

func outpointKey(txid string, vout uint32) string {
	return fmt.Sprintf("%s_%d", txid, vout)
}
