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

const listingStoreDir = "listings"

type listingRepository struct {
	store *badgerhold.Store
}

func NewListingRepository(baseDir string, logger badger.Logger) (domain.ListingRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, listingStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing store: %s", err)
	}

	return &listingRepository{store}, nil
}

func (r *listingRepository) AddListings(
	ctx context.Context, listings []domain.Listing,
) (int, error) {
	count := 0
	for _, listing := range listings {
		err := r.store.Insert(outpointKey(listing.Txid, listing.Vout), &listing)
		if err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				continue
			}
			if errors.Is(err, badger.ErrConflict) {
				attempts := 1
				for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
					time.Sleep(100 * time.Millisecond)
					err = r.store.Insert(outpointKey(listing.Txid, listing.Vout), &listing)
					attempts++
				}
			}
			if err != nil {
				return count, err
			}
		}
		count++
	}
	return count, nil
}

func (r *listingRepository) GetListingByOutpoint(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.store.Get(outpointKey(outpoint.Txid, outpoint.Vout), &listing)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

func (r *listingRepository) GetListingsByAssetId(
	ctx context.Context, assetId string,
) ([]domain.Listing, error) {
	var listings []domain.Listing
	query := badgerhold.Where("AssetId").Eq(assetId).And("Spent").Eq(false)
	if err := r.store.Find(&listings, query); err != nil {
		return nil, fmt.Errorf("failed to list listings by asset id: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) MarkListingSpent(
	ctx context.Context, outpoint domain.Outpoint, spentBy string,
) error {
	key := outpointKey(outpoint.Txid, outpoint.Vout)
	var listing domain.Listing
	if err := r.store.Get(key, &listing); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("listing %s not found", key)
		}
		return err
	}
	listing.Spent = true
	listing.SpentBy = spentBy
	return r.store.Update(key, &listing)
}

func (r *listingRepository) Close() {
	// nolint:all
	r.store.Close()
}
